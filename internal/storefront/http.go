package storefront

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/profile"
	"Storefront/pkg/kit"
)

const (
	reloadTimeout = 15 * time.Second
	readyTimeout  = 2 * time.Second
)

// Pinger reports whether durable storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Controller *Controller
	Storage    Pinger
	Log        *zap.Logger

	reloadLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.view)
		r.Get("/products", s.products)
		r.Get("/categories", s.categories)
		r.Get("/cart", s.cart)

		reload := http.Handler(http.HandlerFunc(s.reload))
		if s.reloadLimiter != nil {
			reload = s.reloadLimiter.Middleware(reload)
		}
		r.Method(http.MethodPost, "/catalog/reload", reload)

		r.Patch("/filters/basic", s.basicFilters)
		r.Post("/filters/advanced", s.advancedFilters)
		r.Post("/filters/clear-basic", s.clearBasic)
		r.Post("/filters/clear-all", s.clearAll)
		r.Post("/store", s.showStore)

		r.Post("/cart/items", s.addItem)
		r.Patch("/cart/items/{id}", s.changeQuantity)
		r.Delete("/cart/items/{id}", s.removeItem)
		r.Post("/checkout", s.checkout)

		r.Get("/settings", s.settings)
		r.Put("/settings", s.saveSettings)
		r.Post("/logout", s.logout)

		r.Post("/overlays/{name}/{action}", s.overlay)
		r.Post("/escape", s.escape)
	})

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if st := s.Controller.Status(); st != StatusReady {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", map[string]any{"status": st})
		return
	}

	if s.Storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.Storage.Ping(ctx); err != nil {
			s.Log.Warn("readyz failed: storage", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "storage not ready", nil)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) view(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.View())
}

func (s *Server) products(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.VisibleProducts())
}

func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.Categories())
}

func (s *Server) cart(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.Cart())
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	if err := s.Controller.Load(ctx); err != nil {
		kit.WriteError(w, r, http.StatusBadGateway, "catalog unavailable", map[string]any{"view": s.Controller.View()})
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Controller.View())
}

func (s *Server) basicFilters(w http.ResponseWriter, r *http.Request) {
	var in BasicInput
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Controller.UpdateBasic(r.Context(), in))
}

func (s *Server) advancedFilters(w http.ResponseWriter, r *http.Request) {
	var in AdvancedInput
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Controller.ApplyAdvanced(r.Context(), in))
}

func (s *Server) clearBasic(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.ClearBasic(r.Context()))
}

func (s *Server) clearAll(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.ClearAll(r.Context()))
}

func (s *Server) showStore(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.ShowStore(r.Context()))
}

type addItemReq struct {
	ProductID int `json:"product_id"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Controller.AddToCart(r.Context(), req.ProductID))
}

type changeQuantityReq struct {
	Delta int `json:"delta"`
}

func (s *Server) changeQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req changeQuantityReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Controller.ChangeQuantity(r.Context(), id, req.Delta))
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Controller.RemoveFromCart(r.Context(), id))
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	v, err := s.Controller.Checkout(r.Context())
	switch {
	case err == nil:
		kit.WriteJSON(w, http.StatusOK, v)
	case errors.Is(err, cart.ErrProfileMissing):
		kit.WriteError(w, r, http.StatusConflict, "delivery details required", map[string]any{
			"missing": "delivery_profile",
			"view":    v,
		})
	default:
		s.Log.Error("checkout failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.Settings(r.Context()))
}

type saveSettingsReq struct {
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request) {
	var req saveSettingsReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	v, err := s.Controller.SaveProfile(r.Context(), req.Email, req.Address)
	var ve *profile.ValidationError
	switch {
	case err == nil:
		kit.WriteJSON(w, http.StatusOK, v)
	case errors.As(err, &ve):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "email and address are required", map[string]any{
			"fields": ve.Missing,
		})
	default:
		s.Log.Error("save profile failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.Logout(r.Context()))
}

func (s *Server) overlay(w http.ResponseWriter, r *http.Request) {
	name := Overlay(chi.URLParam(r, "name"))

	var (
		v   View
		err error
	)
	switch chi.URLParam(r, "action") {
	case "open":
		v, err = s.Controller.Open(r.Context(), name)
	case "close":
		v, err = s.Controller.Close(r.Context(), name)
	default:
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
		return
	}
	if errors.Is(err, ErrUnknownOverlay) {
		kit.WriteError(w, r, http.StatusNotFound, "unknown overlay", map[string]any{"name": name})
		return
	}
	kit.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) escape(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Controller.Escape(r.Context()))
}

func productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
