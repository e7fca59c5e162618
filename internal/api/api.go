// Package api dispatches a decoded method request: it validates the outer
// envelope, authenticates the caller, validates the method arguments and
// calls the scoring collaborator.
//
// Handle is safe for concurrent use. Each call builds its own request
// objects; the Dispatcher itself holds only read-only collaborators.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/otus/scoring-api/internal/auth"
	"github.com/otus/scoring-api/internal/request"
	"github.com/otus/scoring-api/internal/scoring"
	"github.com/otus/scoring-api/internal/types"
)

const (
	OnlineScoreMethod      = "online_score"
	ClientsInterestsMethod = "clients_interests"

	// AdminScore is returned to the admin login without calling the scorer.
	AdminScore = 42
)

// Methods lists the supported method names.
var Methods = []string{OnlineScoreMethod, ClientsInterestsMethod}

// Scorer is the scoring collaborator.
type Scorer interface {
	GetScore(ctx context.Context, in scoring.Input) (float64, error)
	GetInterests(ctx context.Context, clientID int64) ([]string, error)
}

// Dispatcher routes method requests.
type Dispatcher struct {
	gate   *auth.Gate
	scorer Scorer

	// Now is the reference clock for BirthDay validation. Nil means time.Now.
	Now func() time.Time
}

func New(gate *auth.Gate, scorer Scorer) *Dispatcher {
	return &Dispatcher{gate: gate, scorer: scorer}
}

// Handle processes one decoded request body and returns the response body
// and status code. rc receives the per-method annotations.
//
// A non-nil error means a collaborator failed; the caller answers 500.
func (d *Dispatcher) Handle(ctx context.Context, body any, rc *types.RequestContext) (any, int, error) {
	opts := []request.Option{request.WithToday(d.now())}

	req := request.NewMethodRequest(body, opts...)
	if !req.Valid() {
		return req.Errors(), http.StatusUnprocessableEntity, nil
	}

	creds := auth.Context{Account: req.Account(), Login: req.Login(), Token: req.Token()}
	if !d.gate.IsAuthenticated(creds) {
		return http.StatusText(http.StatusForbidden), http.StatusForbidden, nil
	}

	switch req.Method() {
	case OnlineScoreMethod:
		return d.onlineScore(ctx, req, rc, opts)
	case ClientsInterestsMethod:
		return d.clientsInterests(ctx, req, rc, opts)
	default:
		return fmt.Sprintf("unsupported method, use one of %v", Methods), http.StatusUnprocessableEntity, nil
	}
}

func (d *Dispatcher) onlineScore(ctx context.Context, req *request.MethodRequest, rc *types.RequestContext, opts []request.Option) (any, int, error) {
	args := request.NewOnlineScoreRequest(req.Value("arguments"), opts...)
	if !args.Valid() {
		return args.Errors(), http.StatusUnprocessableEntity, nil
	}

	rc.Has = args.InitializedFields()

	if d.gate.IsAdmin(req.Login()) {
		return map[string]float64{"score": AdminScore}, http.StatusOK, nil
	}

	in := scoring.Input{
		FirstName: args.FirstName(),
		LastName:  args.LastName(),
		Email:     args.Email(),
		Phone:     args.Phone(),
	}
	if b, ok := args.Birthday(); ok {
		in.Birthday = &b
	}
	if g, ok := args.Gender(); ok {
		in.Gender = &g
	}

	score, err := d.scorer.GetScore(ctx, in)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("online_score: %w", err)
	}
	return map[string]float64{"score": score}, http.StatusOK, nil
}

func (d *Dispatcher) clientsInterests(ctx context.Context, req *request.MethodRequest, rc *types.RequestContext, opts []request.Option) (any, int, error) {
	args := request.NewClientsInterestsRequest(req.Value("arguments"), opts...)
	if !args.Valid() {
		return args.Errors(), http.StatusUnprocessableEntity, nil
	}

	rc.NClients = args.NClients()

	ids := args.ClientIDs()
	interests := make(map[string][]string, len(ids))
	for _, id := range ids {
		list, err := d.scorer.GetInterests(ctx, id)
		if err != nil {
			return nil, http.StatusInternalServerError, fmt.Errorf("clients_interests: %w", err)
		}
		interests[strconv.FormatInt(id, 10)] = list
	}
	return interests, http.StatusOK, nil
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
