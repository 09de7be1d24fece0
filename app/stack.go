package app

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/x"
	"github.com/iov-one/escrowd/x/escrow"
	"github.com/iov-one/escrowd/x/rent"
	"github.com/iov-one/escrowd/x/sigs"
	"github.com/iov-one/escrowd/x/token"
	"github.com/iov-one/escrowd/x/utils"
)

// Stack holds every extension of the application wired together.
type Stack struct {
	Auth    x.Authenticator
	Rent    rent.Controller
	Tokens  token.Controller
	Escrows *escrow.Engine

	// Handler processes transactions. It is the router wrapped with all
	// decorators.
	Handler escrowd.Handler
	// Queries answers ABCI queries.
	Queries escrowd.QueryRouter
	// Initializer loads the genesis state.
	Initializer escrowd.Initializer
}

// NewStack builds the extensions. Escrow metrics may be nil.
//
// Signature verification runs outside of the deliver savepoint, so a
// transaction with valid signatures always consumes its sequence, even when
// the message fails. All state changes of the message itself are discarded
// on failure.
func NewStack(m *escrow.Metrics) *Stack {
	auth := sigs.Authenticate{}
	rentCtrl := rent.NewController()
	tokens := token.NewController(rentCtrl)
	engine := escrow.NewEngine(tokens, rentCtrl, m)

	r := NewRouter()
	token.RegisterRoutes(r, auth, tokens)
	escrow.RegisterRoutes(r, auth, engine)

	queries := escrowd.NewQueryRouter()
	queries.RegisterAll(
		rentCtrl.RegisterQuery,
		tokens.RegisterQuery,
		engine.RegisterQuery,
		sigs.RegisterQuery,
	)

	handler := ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		utils.NewActionTagger(),
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(r)

	return &Stack{
		Auth:        auth,
		Rent:        rentCtrl,
		Tokens:      tokens,
		Escrows:     engine,
		Handler:     handler,
		Queries:     queries,
		Initializer: escrowd.ChainInitializers(rent.Initializer{}, token.Initializer{}),
	}
}
