package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"filtergraph-box/internal/config"
	"filtergraph-box/internal/utils"
	"filtergraph-box/pkg/encoder/filtergraph"
	"filtergraph-box/pkg/job"
	"filtergraph-box/pkg/logger"
	"filtergraph-box/pkg/monitor"
	object_storage "filtergraph-box/pkg/object-storage"
	"filtergraph-box/pkg/probe"
	progress_broker "filtergraph-box/pkg/progress-broker"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dapr/go-sdk/client"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	// Global logger instance
	log = logger.Build()
	// Master context
	ctx = context.Background()
)

// Some kind of a root DI container
type server struct {
	// Arities used to parse every incoming filter graph
	registry filtergraph.Registry
	// Nil when no object store is configured, /encode is then unavailable
	runner  *job.Runner
	monitor *monitor.SystemMonitor
	log     *logrus.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/compose", s.compose)
	mux.HandleFunc("/encode", s.encodeSync)
	mux.HandleFunc("/healthz", s.healthz)
	return mux
}

// Fire a new encoding
// /!\ An HTTP return code 200 will only be returned **after** the encoding is done /!\
// This function is intended to be used with a messaging service. This way, the message will
// only be deleted from the messaging service after we made sure the processing is complete
// Although it's still possible to use it in plain HTTP, you'd have to set the HTTP_SESSION
// max time to 0
func (s *server) encodeSync(w http.ResponseWriter, req *http.Request) {
	// Confirm Dapr subscription
	if req.Method == http.MethodOptions {
		_, _ = w.Write([]byte("OK"))
		return
	}
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer req.Body.Close()
	if s.runner == nil {
		http.Error(w, "no object store configured", http.StatusServiceUnavailable)
		return
	}

	encodeRequest, err := parseBody(req.Body)
	if err != nil {
		s.log.Warnf("Wrong encode request received : %s", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.log.Infof(`New encoding request with id "%s" received !`, encodeRequest.JobId)
	if err = s.runner.Run(req.Context(), encodeRequest); err != nil {
		if job.IsRequestError(err) {
			writeJSON(w, http.StatusBadRequest, parseErrorResponse(err, encodeRequest.FilterGraph, nil))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	// Finally, ACK the message
	_, _ = w.Write([]byte("OK"))
}

type healthResponse struct {
	Status string `json:"status"`
	monitor.HostStats
}

// Health endpoint
func (s *server) healthz(w http.ResponseWriter, req *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.monitor != nil {
		stats, err := s.monitor.GetStats(req.Context())
		if err != nil {
			s.log.Warnf("Cannot read host stats : %s", err)
		}
		resp.HostStats = stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// Attempt to parse a body into an encoding request
func parseBody(from io.Reader) (*job.EncodingRequest, error) {
	if from == nil {
		return nil, fmt.Errorf("no body provided")
	}
	// Two types of body have to be supported : a dapr event or a raw body
	contents, err := io.ReadAll(from)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(contents)) == 0 {
		return nil, fmt.Errorf("no body provided")
	}

	// First, try to parse the body as a dapr event
	var dEvt DaprEvent
	if err = json.Unmarshal(contents, &dEvt); err != nil {
		return nil, err
	}
	// If "Type" and "Topic" are in the struct, this should be a dapr event,
	// in which case the payload is in "Data"
	if dEvt.Type != "" && dEvt.Topic != "" {
		return &dEvt.Data, nil
	}

	// Else, try to parse the request as a raw encoding request
	var eReq job.EncodingRequest
	if err = json.Unmarshal(contents, &eReq); err != nil {
		return nil, err
	}
	return &eReq, nil
}

func makeDaprClient(grpcPort int, maxRequestSizeMB int) (client.Client, error) {
	opts := []grpc.CallOption{grpc.MaxCallRecvMsgSize(maxRequestSizeMB * 1024 * 1024)}
	conn, err := grpc.Dial(net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", grpcPort)),
		grpc.WithDefaultCallOptions(opts...), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return client.NewClientWithConnection(conn), nil
}

// loadRegistry Filter arities of the installed ffmpeg, or the builtin ones
func loadRegistry(cfg *config.Config) filtergraph.Registry {
	if !cfg.ProbeFilters {
		return filtergraph.Builtin
	}
	pCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	reg, err := probe.LoadFilters(pCtx, cfg.FFmpegPath)
	if err != nil {
		log.Warnf("Cannot probe ffmpeg filters, using the builtin arities : %s", err)
		return filtergraph.Builtin
	}
	log.Infof("Loaded %d filters from %s", len(reg.Filters), cfg.FFmpegPath)
	return reg
}

// Initializes all components from the configuration
func newServer(cfg *config.Config, sidecar func() (utils.Sidecar, error)) (*server, error) {
	s := &server{
		registry: loadRegistry(cfg),
		monitor:  monitor.NewSystemMonitor(monitor.DefaultSampleWindow),
		log:      log,
	}
	filtergraph.DefaultRegistry = s.registry

	// The object store is required to encode. Without it, only /compose is served
	if cfg.ObjectStoreName == "" {
		log.Warn("Object store component is not defined ! /encode is disabled")
		return s, nil
	}
	daprClient, err := sidecar()
	if err != nil {
		return nil, fmt.Errorf("cannot init dapr client : %w", err)
	}
	objStore, err := object_storage.NewDaprObjectStorage(daprClient, cfg.ObjectStoreName)
	if err != nil {
		return nil, fmt.Errorf("cannot init object store : %w", err)
	}

	// Next, load the event broker. This is optional, the server can function without it defined
	var broker job.Broker
	if cfg.PubSubName != "" {
		log.Info("The pubsub component is defined ! ")
		broker = progress_broker.NewProgressBroker(daprClient, progress_broker.NewBrokerOptions{
			Component: cfg.PubSubName,
			Topic:     cfg.PubSubTopicProgress,
		})
	}
	s.runner = job.NewRunner(
		objStore,
		object_storage.NewHTTPFetcher(objStore.AssetsPath(), cfg.ObjStoreMaxRetry),
		broker,
		job.Options{
			MaxRetry:        cfg.ObjStoreMaxRetry,
			RetryBaseDelay:  time.Second,
			FFmpegPath:      cfg.FFmpegPath,
			FFprobePath:     cfg.FFprobePath,
			ScriptThreshold: cfg.FilterScriptThreshold,
			Registry:        s.registry,
		},
		log,
	)
	return s, nil
}

func main() {
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal(err)
	}
	log = logger.BuildWithLevel(cfg.LogLevel)

	s, err := newServer(cfg, func() (utils.Sidecar, error) {
		return makeDaprClient(cfg.DaprGrpcPort, cfg.DaprMaxRequestSizeMB)
	})
	if err != nil {
		log.Fatal(err)
		os.Exit(-1)
	}
	log.Infof("Started server on PORT %d", cfg.AppPort)
	if err = http.ListenAndServe(fmt.Sprintf(":%d", cfg.AppPort), s.routes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// An event as forwarded by dapr
type DaprEvent struct {
	Type  string              `json:"type"`
	Topic string              `json:"topic"`
	Data  job.EncodingRequest `json:"data"`
}
