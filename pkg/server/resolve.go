package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/cache"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/report"
	"github.com/matzehuels/stackresolve/pkg/resolve"
	"github.com/matzehuels/stackresolve/pkg/session"
	"github.com/matzehuels/stackresolve/pkg/version"
)

// ResolveRequest is the body of POST /resolve. Exactly one of Coordinate
// and Dependencies must be set.
type ResolveRequest struct {
	Coordinate   string   `json:"coordinate,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Scope        string   `json:"scope,omitempty"` // Default: main-runtime
	Types        []string `json:"types,omitempty"` // Default: classpath
	Refresh      bool     `json:"refresh,omitempty"`
}

type parsedRequest struct {
	target session.Target
	root   string
	scope  resolve.PathScope
	types  []resolve.PathType
	stable bool // no snapshot, symbolic or range versions
}

func (req ResolveRequest) parse() (*parsedRequest, error) {
	if (req.Coordinate == "") == (len(req.Dependencies) == 0) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "exactly one of coordinate and dependencies is required")
	}
	p := &parsedRequest{scope: resolve.MainRuntime, stable: true}
	if req.Scope != "" {
		s, err := resolve.ParsePathScope(req.Scope)
		if err != nil {
			return nil, err
		}
		p.scope = s
	}
	for _, t := range req.Types {
		pt, err := resolve.ParsePathType(t)
		if err != nil {
			return nil, err
		}
		p.types = append(p.types, pt)
	}

	coords := req.Dependencies
	if req.Coordinate != "" {
		coords = []string{req.Coordinate}
	}
	deps := make([]artifact.Dependency, len(coords))
	for i, c := range coords {
		a, err := artifact.ParseCoordinate(c)
		if err != nil {
			return nil, err
		}
		deps[i] = artifact.Dependency{Artifact: a}
		if a.IsSnapshot() || version.IsMetaVersion(a.Version) || version.IsRange(a.Version) {
			p.stable = false
		}
	}
	if req.Coordinate != "" {
		p.target = session.Target{Dependency: &deps[0]}
	} else {
		p.target = session.Target{Dependencies: deps}
	}
	p.root = strings.Join(coords, ",")
	return p, nil
}

func (s *Server) resolutionKey(p *parsedRequest) string {
	opts := cache.ResolutionKeyOpts{Scope: string(p.scope), IncludeRoot: p.target.Dependency != nil}
	for _, t := range p.types {
		opts.Types = append(opts.Types, string(t))
	}
	for _, r := range s.sess.RemoteRepositories() {
		opts.Repositories = append(opts.Repositories, r.String())
	}
	return s.opts.Keyer.ResolutionKey(p.root, opts)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	p, err := req.parse()
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	key := s.resolutionKey(p)
	if p.stable && !req.Refresh {
		if rep, ok := s.cached(ctx, key); ok {
			w.Header().Set("X-Cache", "hit")
			writeJSON(w, http.StatusOK, rep)
			return
		}
	}

	rctx, cancel := context.WithTimeout(ctx, s.opts.ResolveTimeout)
	defer cancel()
	start := time.Now()
	res, err := s.sess.Resolve(rctx, p.target, p.scope, p.types...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errs.Wrap(errs.ErrCodeTimeout, err, "resolve %s", p.root)
		}
		s.writeError(w, err)
		return
	}

	rep := report.New(res, p.scope, time.Since(start))
	if err := s.store.Save(ctx, rep); err != nil {
		s.writeError(w, err)
		return
	}
	if p.stable {
		if err := s.opts.Cache.Set(ctx, key, []byte(rep.ID), cache.TTLReport); err != nil {
			s.opts.Logger.Warn("could not index report", "id", rep.ID, "err", err)
		}
	}
	w.Header().Set("Location", "/reports/"+rep.ID)
	writeJSON(w, http.StatusCreated, rep)
}

// cached returns the stored report for key. Index entries whose report
// is gone are dropped.
func (s *Server) cached(ctx context.Context, key string) (*report.Report, bool) {
	id, ok, err := s.opts.Cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	rep, err := s.store.Get(ctx, string(id))
	if err != nil {
		_ = s.opts.Cache.Delete(ctx, key)
		return nil, false
	}
	return rep, true
}

// VersionsResponse is the body of GET /versions/{group}/{artifact}.
type VersionsResponse struct {
	Range    string   `json:"range"`
	Versions []string `json:"versions"`
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "[0,)"
	}
	a := artifact.Artifact{
		GroupID:    chi.URLParam(r, "group"),
		ArtifactID: chi.URLParam(r, "artifact"),
		Extension:  artifact.DefaultExtension,
		Version:    rng,
	}
	if err := errs.ValidateCoordinatePart("groupId", a.GroupID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := errs.ValidateCoordinatePart("artifactId", a.ArtifactID); err != nil {
		s.writeError(w, err)
		return
	}

	vs, err := s.sess.ResolveVersionRange(r.Context(), a)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := VersionsResponse{Range: rng, Versions: make([]string, len(vs))}
	for i, v := range vs {
		out.Versions[i] = v.String()
	}
	writeJSON(w, http.StatusOK, out)
}
