package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"swasthya.org/internal/auth"
	"swasthya.org/internal/hierarchy"
	"swasthya.org/internal/obs"
)

// RequireRoles gates a route on an explicit allow-set. Admin passes
// unconditionally regardless of the set's contents.
func RequireRoles(allowed ...auth.Role) func(http.Handler) http.Handler {
	set := auth.RoleSet(allowed)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				// The gate runs first on every protected route; this is a
				// defensive check, not an expected path.
				obs.ObserveDenial("role")
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			role := user.Role()
			if !role.Valid() {
				obs.ObserveDenial("role")
				writeError(w, r, http.StatusForbidden, "account has no role assigned")
				return
			}
			if role == auth.RoleAdmin || set.Contains(role) {
				next.ServeHTTP(w, r)
				return
			}
			obs.ObserveDenial("role")
			writeError(w, r, http.StatusForbidden,
				fmt.Sprintf("requires one of [%s], have %s", set, role))
		})
	}
}

// Context carriage for entities loaded during authorization, so handlers
// do not query them a second time.

type districtContextKey struct{}
type blockContextKey struct{}

func contextWithResolution(ctx context.Context, res hierarchy.Resolution) context.Context {
	if res.District != nil {
		ctx = context.WithValue(ctx, districtContextKey{}, res.District)
	}
	if res.Block != nil {
		ctx = context.WithValue(ctx, blockContextKey{}, res.Block)
	}
	return ctx
}

func districtFromContext(ctx context.Context) (*hierarchy.District, bool) {
	d, ok := ctx.Value(districtContextKey{}).(*hierarchy.District)
	return d, ok
}

func blockFromContext(ctx context.Context) (*hierarchy.Block, bool) {
	b, ok := ctx.Value(blockContextKey{}).(*hierarchy.Block)
	return b, ok
}

// requireOfficer authorizes routes scoped to a district or block. The
// descriptor names which officer binding holds authority; the urlParam
// names the chi route parameter carrying the entity id.
func (a *API) requireOfficer(desc hierarchy.Descriptor, urlParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				obs.ObserveDenial("hierarchy")
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if user.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			entityID := chi.URLParam(r, urlParam)
			resolution, err := a.hier.ResolveOfficer(r.Context(), desc, entityID)
			if err != nil {
				if errors.Is(err, hierarchy.ErrNotFound) {
					writeError(w, r, http.StatusNotFound, fmt.Sprintf("%s not found", desc.Entity))
					return
				}
				a.log.Error().Err(err).Str("entity", string(desc.Entity)).Msg("officer resolution failure")
				writeError(w, r, http.StatusInternalServerError, "authorization error")
				return
			}

			if resolution.OfficerUserID == "" || resolution.OfficerUserID != user.ID {
				obs.ObserveDenial("hierarchy")
				writeError(w, r, http.StatusForbidden,
					fmt.Sprintf("not the delegated officer for this %s", desc.Entity))
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithResolution(r.Context(), resolution)))
		})
	}
}

// Owned is any resource carrying an owner field.
type Owned interface {
	OwnerID() string
}

type resourceContextKey struct{}

// ContextWithResource attaches a loaded resource for the ownership check.
// Loader middleware must run before RequireResourceOwner.
func ContextWithResource(ctx context.Context, res Owned) context.Context {
	return context.WithValue(ctx, resourceContextKey{}, res)
}

func resourceFromContext(ctx context.Context) (Owned, bool) {
	res, ok := ctx.Value(resourceContextKey{}).(Owned)
	return res, ok
}

// requireResourceOwner compares the loaded resource's owner to the
// principal. Admin and any role in the elevated set bypass. A missing
// resource is a middleware ordering bug and surfaces as 500.
func (a *API) requireResourceOwner(elevated ...auth.Role) func(http.Handler) http.Handler {
	elevatedSet := auth.RoleSet(elevated)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				obs.ObserveDenial("ownership")
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			res, ok := resourceFromContext(r.Context())
			if !ok {
				a.log.Error().Str("path", r.URL.Path).Msg("ownership check ran before resource loader")
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			if user.IsAdmin() || elevatedSet.Contains(user.Role()) {
				next.ServeHTTP(w, r)
				return
			}
			if res.OwnerID() != user.ID {
				obs.ObserveDenial("ownership")
				writeError(w, r, http.StatusForbidden, "you do not own this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
