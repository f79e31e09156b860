package api

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"multidist/internal/ledger"
)

// addressParam decodes the named URL parameter, writing a 400 on failure.
func (s *Server) addressParam(w http.ResponseWriter, r *http.Request, name string) (solana.PublicKey, bool) {
	pk, err := ledger.ParseAddress(name, chi.URLParam(r, name))
	if err != nil {
		s.writeError(w, r, err)
		return solana.PublicKey{}, false
	}
	return pk, true
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.addressParam(w, r, "collection")
	if !ok {
		return
	}
	c, err := s.svc.GetCollection(r.Context(), addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCollectionView(c))
}

func (s *Server) listDistributions(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.addressParam(w, r, "collection")
	if !ok {
		return
	}
	list, err := s.svc.ListDistributions(r.Context(), addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]distributionView, 0, len(list))
	for _, d := range list {
		views = append(views, newDistributionView(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.addressParam(w, r, "collection")
	if !ok {
		return
	}
	user, ok := s.addressParam(w, r, "user")
	if !ok {
		return
	}
	p, err := s.svc.Position(r.Context(), collection, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPositionView(p))
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.addressParam(w, r, "collection")
	if !ok {
		return
	}
	report, err := s.svc.Audit(r.Context(), addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuditView(report))
}

func (s *Server) getDistribution(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.addressParam(w, r, "distribution")
	if !ok {
		return
	}
	d, err := s.svc.GetDistribution(r.Context(), addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDistributionView(d))
}
