package inventory

import "context"

// Actor identidad a la que se atribuye cada movimiento.
type Actor struct {
	ID   string
	Name string
}

type actorKey struct{}

// WithActor devuelve un contexto que transporta el actor autenticado.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext devuelve el actor del contexto. ok es false si no hay actor o no tiene ID.
// Si el actor no trae nombre se usa su ID como nombre visible.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	if actor.Name == "" {
		actor.Name = actor.ID
	}
	return actor, true
}
