// internal/server/server.go

// Package server exposes catalog models over the V2 inference protocol, so
// a generate step on another machine can score through them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mavekit/internal/predictor"
	"mavekit/internal/version"
	"mavekit/internal/zoo"
	"mavekit/pkg/api"
)

// DefaultMaxBatch bounds the number of sequences in one infer request.
const DefaultMaxBatch = 4096

const shutdownTimeout = 10 * time.Second

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("batch too large")
)

type Options struct {
	MaxBatch int
}

// Server serves every model of a catalog. Models are opened on first use.
type Server struct {
	catalog  *zoo.Catalog
	maxBatch int

	mu     sync.Mutex
	models map[string]predictor.Predictor
}

func New(cat *zoo.Catalog, opt Options) *Server {
	if opt.MaxBatch <= 0 {
		opt.MaxBatch = DefaultMaxBatch
	}
	return &Server{catalog: cat, maxBatch: opt.MaxBatch, models: map[string]predictor.Predictor{}}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logging(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
	})
	v2 := r.Group("/v2")
	v2.GET("/models", s.listModels)
	v2.GET("/models/:name", s.modelMetadata)
	v2.GET("/models/:name/ready", s.modelReady)
	v2.POST("/models/:name/infer", s.infer)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	errc := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return <-errc
}

func (s *Server) model(name string) (predictor.Predictor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.models[name]; ok {
		return p, nil
	}
	e, err := s.catalog.Entry(name)
	if err != nil {
		return nil, err
	}
	p, err := e.Open()
	if err != nil {
		return nil, err
	}
	s.models[name] = p
	return p, nil
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.catalog.Names()})
}

func (s *Server) modelMetadata(c *gin.Context) {
	name := c.Param("name")
	e, err := s.catalog.Entry(name)
	if err != nil {
		writeError(c, err)
		return
	}
	md := api.ModelMetadataV1{
		Name:     e.Name,
		Platform: "mavekit-" + e.Kind,
		Inputs:   []api.TensorMetaV1{{Name: predictor.DefaultInputName, Datatype: api.DatatypeFP32, Shape: []int{-1, -1, alphabetSize(e)}}},
	}
	for _, t := range e.TaskNames() {
		md.Outputs = append(md.Outputs, api.TensorMetaV1{Name: t, Datatype: api.DatatypeFP32, Shape: []int{-1, -1}})
	}
	c.JSON(http.StatusOK, md)
}

func alphabetSize(e zoo.Entry) int {
	if e.Alphabet == "" {
		return 4
	}
	return len(e.Alphabet)
}

type readier interface {
	Ready(ctx context.Context) error
}

func (s *Server) modelReady(c *gin.Context) {
	p, err := s.model(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	if r, ok := p.(readier); ok {
		if err := r.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, api.ErrorV1{Error: err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "ready": true})
}

func (s *Server) infer(c *gin.Context) {
	name := c.Param("name")
	p, err := s.model(name)
	if err != nil {
		writeError(c, err)
		return
	}
	var req api.InferRequestV1
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if len(req.Inputs) != 1 {
		writeError(c, fmt.Errorf("%w: want exactly one input tensor, got %d", errBadRequest, len(req.Inputs)))
		return
	}
	batch, err := predictor.DecodeTensor(req.Inputs[0])
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if e, _ := s.catalog.Entry(name); req.Inputs[0].Shape[2] != alphabetSize(e) {
		writeError(c, fmt.Errorf("%w: input has %d symbols per position, model %s expects %d",
			errBadRequest, req.Inputs[0].Shape[2], name, alphabetSize(e)))
		return
	}
	if len(batch) > s.maxBatch {
		writeError(c, fmt.Errorf("%w: %d > %d", errTooLarge, len(batch), s.maxBatch))
		return
	}

	tasks := p.Tasks()
	want, err := requested(tasks, req.Outputs)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := api.InferResponseV1{ModelName: name, ID: req.ID}
	if len(batch) == 0 {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx := c.Request.Context()
	if tp, ok := p.(predictor.TrackPredictor); ok {
		tracks, err := tp.PredictTracks(ctx, batch)
		if err != nil {
			writeError(c, err)
			return
		}
		for _, t := range want {
			resp.Outputs = append(resp.Outputs, trackTensor(tasks[t], tracks, t))
		}
	} else {
		ys, err := p.PredictBatch(ctx, batch)
		if err != nil {
			writeError(c, err)
			return
		}
		for _, t := range want {
			data := make([]float32, len(ys))
			for b := range ys {
				data[b] = ys[b][t]
			}
			resp.Outputs = append(resp.Outputs, api.TensorV1{Name: tasks[t], Shape: []int{len(ys)}, Datatype: api.DatatypeFP32, Data: data})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// requested resolves the output names of a request to task indexes; none
// means all.
func requested(tasks []string, outs []api.RequestedOutputV1) ([]int, error) {
	if len(outs) == 0 {
		all := make([]int, len(tasks))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	idx := make(map[string]int, len(tasks))
	for i, t := range tasks {
		idx[t] = i
	}
	want := make([]int, 0, len(outs))
	for _, o := range outs {
		i, ok := idx[o.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (have %v)", predictor.ErrUnknownTask, o.Name, tasks)
		}
		want = append(want, i)
	}
	return want, nil
}

func trackTensor(name string, tracks [][][]float32, t int) api.TensorV1 {
	width := len(tracks[0][t])
	data := make([]float32, 0, len(tracks)*width)
	for b := range tracks {
		data = append(data, tracks[b][t]...)
	}
	return api.TensorV1{Name: name, Shape: []int{len(tracks), width}, Datatype: api.DatatypeFP32, Data: data}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, zoo.ErrUnknownModel):
		c.JSON(http.StatusNotFound, api.ErrorV1{Error: err.Error()})
	case errors.Is(err, errBadRequest),
		errors.Is(err, predictor.ErrUnknownTask):
		c.JSON(http.StatusBadRequest, api.ErrorV1{Error: err.Error()})
	case errors.Is(err, errTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorV1{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		c.JSON(499, api.ErrorV1{Error: "client closed request"})
	default:
		log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("inference failed")
		c.JSON(http.StatusInternalServerError, api.ErrorV1{Error: err.Error()})
	}
}
