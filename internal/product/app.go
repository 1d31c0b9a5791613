package product

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductAPI/pkg/kit"
)

const (
	maxCreateBody = 1 << 20
	readyTimeout  = 1 * time.Second

	msgDatabaseError = "Database error"
	msgBadBody       = "Invalid request body"
	msgCreated       = "Product added successfully"
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

func NewServer(store Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Store: store, Log: log}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.index)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
	})

	return r
}

type indexResp struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, indexResp{
		Message: "Product Management API",
		Endpoints: map[string]string{
			"GET /api/products":          "Get all products",
			"GET /api/products?q=search": "Search products",
			"POST /api/products":         "Create new product",
		},
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")

	products, err := s.Store.List(r.Context(), search)
	if err != nil {
		s.storageFailure(w, "list products failed", err, zap.String("q", search))
		return
	}

	s.Log.Debug("products listed", zap.Int("count", len(products)), zap.String("q", search))
	kit.WriteJSON(w, http.StatusOK, products)
}

type createdProduct struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type createResp struct {
	Message string         `json:"message"`
	Product createdProduct `json:"product"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	rawName, rawPrice, err := decodeCreateRequest(w, r)
	if err != nil {
		s.Log.Debug("bad create body", zap.Error(err))
		kit.WriteError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	in, err := Validate(rawName, rawPrice)
	if err != nil {
		s.Log.Debug("product rejected", zap.String("reason", err.Error()))
		kit.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.Store.Insert(r.Context(), in.Name, in.Price)
	if err != nil {
		s.storageFailure(w, "insert product failed", err, zap.String("name", in.Name))
		return
	}

	s.Log.Info("product added",
		zap.Int64("id", p.ID),
		zap.String("name", p.Name),
		zap.Float64("price", p.Price),
	)
	kit.WriteJSON(w, http.StatusCreated, createResp{
		Message: msgCreated,
		Product: createdProduct{ID: p.ID, Name: p.Name, Price: p.Price},
	})
}

func (s *Server) storageFailure(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	var serr *StorageError
	if errors.As(err, &serr) {
		fields = append(fields, zap.String("op", serr.Op))
	}
	s.Log.Error(msg, append(fields, zap.Error(err))...)
	kit.WriteErrorMessage(w, http.StatusInternalServerError, msgDatabaseError, err.Error())
}

type createReq struct {
	Name  any `json:"name"`
	Price any `json:"price"`
}

// decodeCreateRequest accepts a JSON object or a urlencoded form. Fields
// that are not sent come back as nil, and bodies of any other content
// type are ignored as if empty.
func decodeCreateRequest(w http.ResponseWriter, r *http.Request) (name, price any, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)
	defer func() { _ = r.Body.Close() }()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, nil, err
		}
		return formValue(r.PostForm, "name"), formValue(r.PostForm, "price"), nil
	}
	if !isJSONMediaType(mediaType) {
		return nil, nil, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var req createReq
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, nil, errors.New("extra data after json object")
	}
	return req.Name, req.Price, nil
}

func isJSONMediaType(mt string) bool {
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func formValue(form url.Values, key string) any {
	if vs, ok := form[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return nil
}
