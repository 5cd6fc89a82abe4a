package gate

import (
	"context"
	"path"
)

// Access classifies a route.
type Access int

const (
	// Public routes render for everyone.
	Public Access = iota
	// Protected routes need a signed-in identity.
	Protected
	// PublicOnly routes (login, signup) are for anonymous visitors only.
	PublicOnly
)

func (a Access) String() string {
	switch a {
	case Protected:
		return "protected"
	case PublicOnly:
		return "public-only"
	default:
		return "public"
	}
}

type Action int

const (
	Loading Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "loading"
	}
}

// Decision is what to show for a route. Location is set only for Redirect.
type Decision struct {
	Action   Action
	Location string
}

const (
	LoginPath = "/login"
	HomePath  = "/editor"
)

// DefaultRoutes is the route table of the web app.
func DefaultRoutes() map[string]Access {
	return map[string]Access{
		"/":        Public,
		"/login":   PublicOnly,
		"/signup":  PublicOnly,
		"/editor":  Protected,
		"/gallery": Protected,
		"/profile": Protected,
	}
}

// Gate applies the route table to the shared resolver state.
type Gate struct {
	resolver *Resolver
	routes   map[string]Access
}

// New builds a Gate. A nil routes map means DefaultRoutes.
func New(r *Resolver, routes map[string]Access) *Gate {
	if routes == nil {
		routes = DefaultRoutes()
	}
	return &Gate{resolver: r, routes: routes}
}

// Access returns the class of route. Unknown routes are public.
func (g *Gate) Access(route string) Access {
	return g.routes[normalize(route)]
}

// Decide answers immediately from the current snapshot. While identity is
// unknown a gated route yields Loading and a lookup is started, so nothing
// protected is shown before resolution completes.
func (g *Gate) Decide(route string) Decision {
	access := g.Access(route)
	if access == Public {
		return Decision{Action: Render}
	}

	snap := g.resolver.Snapshot()
	if !snap.Resolved {
		g.resolver.kick()
		return Decision{Action: Loading}
	}
	return decide(access, snap.Authenticated())
}

// Await waits for identity resolution and returns the final decision.
func (g *Gate) Await(ctx context.Context, route string) (Decision, error) {
	access := g.Access(route)
	if access == Public {
		return Decision{Action: Render}, nil
	}

	u, err := g.resolver.Resolve(ctx)
	if err != nil {
		return Decision{Action: Loading}, err
	}
	return decide(access, u != nil), nil
}

func decide(access Access, authenticated bool) Decision {
	switch {
	case access == Protected && !authenticated:
		return Decision{Action: Redirect, Location: LoginPath}
	case access == PublicOnly && authenticated:
		return Decision{Action: Redirect, Location: HomePath}
	default:
		return Decision{Action: Render}
	}
}

func normalize(route string) string {
	if route == "" {
		return "/"
	}
	return path.Clean("/" + route)
}
