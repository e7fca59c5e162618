package request

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/otus/scoring-api/internal/field"
	"github.com/otus/scoring-api/internal/types"
)

var (
	MethodRequestSchema = field.NewSchema("MethodRequest",
		field.New("account", field.Char, false, true),
		field.New("login", field.Char, true, true),
		field.New("token", field.Char, true, true),
		field.New("arguments", field.Arguments, true, true),
		field.New("method", field.Char, true, false),
	)

	OnlineScoreRequestSchema = field.NewSchema("OnlineScoreRequest",
		field.New("first_name", field.Char, false, true),
		field.New("last_name", field.Char, false, true),
		field.New("email", field.Email, false, true),
		field.New("phone", field.Phone, false, true),
		field.New("birthday", field.BirthDay, false, true),
		field.New("gender", field.Gender, false, true),
	)

	ClientsInterestsRequestSchema = field.NewSchema("ClientsInterestsRequest",
		field.New("client_ids", field.ClientIDs, true, false),
		field.New("date", field.Date, false, true),
	)
)

// ScoringPairs are the field pairs of which at least one must be fully set
// in an online_score request.
var ScoringPairs = [][2]string{
	{"phone", "email"},
	{"first_name", "last_name"},
	{"gender", "birthday"},
}

// RequirePair returns a Rule that passes when both fields of at least one
// pair are set.
func RequirePair(pairs [][2]string) Rule {
	described := make([]string, len(pairs))
	for i, p := range pairs {
		described[i] = fmt.Sprintf("(%s, %s)", p[0], p[1])
	}
	msg := "one of these pairs must be set: " + strings.Join(described, ", ")

	return func(o *Object) error {
		for _, p := range pairs {
			if o.IsSet(p[0]) && o.IsSet(p[1]) {
				return nil
			}
		}
		return errors.New(msg)
	}
}

var onlineScoreRules = []Rule{RequirePair(ScoringPairs)}

// MethodRequest is the outer envelope of every call.
type MethodRequest struct {
	*Object
}

func NewMethodRequest(data any, opts ...Option) *MethodRequest {
	return &MethodRequest{New(MethodRequestSchema, data, nil, opts...)}
}

// Account returns the account, or "" when it is null.
func (r *MethodRequest) Account() string { return r.str("account") }

// Login returns the login, or "" when it is null.
func (r *MethodRequest) Login() string { return r.str("login") }

// Token returns the token, or "" when it is null.
func (r *MethodRequest) Token() string { return r.str("token") }

func (r *MethodRequest) Method() string { return r.str("method") }

// Arguments returns the raw payload for the inner request. It is nil when
// arguments was null.
func (r *MethodRequest) Arguments() map[string]any {
	m, _ := r.Value("arguments").(map[string]any)
	return m
}

func (r *MethodRequest) str(name string) string {
	s, _ := r.Value(name).(string)
	return s
}

// OnlineScoreRequest holds the arguments of the online_score method.
type OnlineScoreRequest struct {
	*Object
}

func NewOnlineScoreRequest(data any, opts ...Option) *OnlineScoreRequest {
	return &OnlineScoreRequest{New(OnlineScoreRequestSchema, data, onlineScoreRules, opts...)}
}

func (r *OnlineScoreRequest) FirstName() string {
	s, _ := r.Value("first_name").(string)
	return s
}

func (r *OnlineScoreRequest) LastName() string {
	s, _ := r.Value("last_name").(string)
	return s
}

func (r *OnlineScoreRequest) Email() string {
	s, _ := r.Value("email").(string)
	return s
}

// Phone returns the normalized 11-digit phone, or "" when it is null.
func (r *OnlineScoreRequest) Phone() string {
	s, _ := r.Value("phone").(string)
	return s
}

func (r *OnlineScoreRequest) Birthday() (time.Time, bool) {
	d, ok := r.Value("birthday").(time.Time)
	return d, ok
}

func (r *OnlineScoreRequest) Gender() (types.Gender, bool) {
	g, ok := r.Value("gender").(types.Gender)
	return g, ok
}

// ClientsInterestsRequest holds the arguments of the clients_interests
// method.
type ClientsInterestsRequest struct {
	*Object
}

func NewClientsInterestsRequest(data any, opts ...Option) *ClientsInterestsRequest {
	return &ClientsInterestsRequest{New(ClientsInterestsRequestSchema, data, nil, opts...)}
}

// ClientIDs returns the ids in request order, duplicates included.
func (r *ClientsInterestsRequest) ClientIDs() []int64 {
	ids, _ := r.Value("client_ids").([]int64)
	return ids
}

func (r *ClientsInterestsRequest) Date() (time.Time, bool) {
	d, ok := r.Value("date").(time.Time)
	return d, ok
}

// NClients returns the number of requested client ids.
func (r *ClientsInterestsRequest) NClients() int {
	return len(r.ClientIDs())
}
