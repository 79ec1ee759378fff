package job

import (
	"context"
	"filtergraph-box/pkg/encoder"
	console_parser "filtergraph-box/pkg/encoder/console-parser"
	"filtergraph-box/pkg/encoder/filtergraph"
	"filtergraph-box/pkg/probe"
	progress_broker "filtergraph-box/pkg/progress-broker"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AssetStore Backend storage holding the inputs and receiving the output
type AssetStore interface {
	Download(ctx context.Context, key string) (string, error)
	Upload(ctx context.Context, path string, key string) error
	Delete(ctx context.Context, key string) error
}

// Fetcher Retrieve inputs given as URLs
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Broker Receive job events
type Broker interface {
	SendProgress(ctx context.Context, data progress_broker.EncodeInfos) error
}

type Options struct {
	// Number of time to retry a failed download. Each retry waits twice as long as the previous one
	MaxRetry int
	// Wait before the first retry
	RetryBaseDelay time.Duration
	FFmpegPath     string
	// Used to compute the progress percentage. Empty disables probing
	FFprobePath string
	// Filter graphs longer than this are passed to ffmpeg in a script file
	ScriptThreshold int
	// Arities used to parse filter graphs. Defaults to filtergraph.DefaultRegistry
	Registry filtergraph.Registry
}

// Runner Execute encoding jobs
type Runner struct {
	store   AssetStore
	fetcher Fetcher
	// Can be nil
	broker Broker
	opt    Options
	log    *logrus.Logger
}

// Done Payload of the Done event
type Done struct {
	OutputKey string `json:"outputKey"`
}

func NewRunner(store AssetStore, fetcher Fetcher, broker Broker, opt Options, log *logrus.Logger) *Runner {
	if opt.Registry == nil {
		opt.Registry = filtergraph.DefaultRegistry
	}
	if opt.FFmpegPath == "" {
		opt.FFmpegPath = encoder.DefaultFFmpegPath
	}
	return &Runner{store: store, fetcher: fetcher, broker: broker, opt: opt, log: log}
}

// Run Process an encoding request until the output is uploaded. Returns a *RequestError if the request itself is
// invalid. Any failure is also published as an Error event
func (r *Runner) Run(ctx context.Context, req *EncodingRequest) (err error) {
	log := r.log.WithFields(logrus.Fields{"jobId": req.JobId})
	defer func() {
		if err != nil {
			log.Errorf("Job failed : %s", err)
			r.publish(ctx, log, req.JobId, progress_broker.Error, err)
		}
	}()
	if err = req.Validate(); err != nil {
		return err
	}
	var graph *filtergraph.Graph
	if req.FilterGraph != "" {
		if graph, err = resolveGraph(r.opt.Registry, req); err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{"inputs": len(req.Inputs), "preset": req.Preset}).Info("Processing encoding request")

	workDir, err := os.MkdirTemp("", "encode-instance")
	if err != nil {
		return fmt.Errorf("can't create temp workDir : %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Warnf("Could not remove directory %s : %s", workDir, rmErr)
		}
	}()

	log.Info("Downloading required assets...")
	paths, err := r.fetchAssets(ctx, log, req.Inputs)
	if err != nil {
		return err
	}
	defer cleanUpAssets(log, paths)

	builder, err := r.builder(req, graph, paths)
	if err != nil {
		return err
	}
	output := filepath.Join(workDir, path.Base(req.Output()))
	enc, err := builder.
		SetFFmpegPath(r.opt.FFmpegPath).
		SetScriptThreshold(r.opt.ScriptThreshold).
		SetOutput(output).
		Build(ctx)
	if err != nil {
		return err
	}
	log.Debugf("Now executing FFMPEG cmd : %s", enc.GetCommandLine())
	if err = r.encode(ctx, log, req.JobId, enc, r.targetDuration(ctx, log, paths)); err != nil {
		return err
	}

	// Once the encoding is complete, upload the resulting video on the backend object storage...
	log.Infof("Uploading %s as %s", output, req.Output())
	if err = r.store.Upload(ctx, output, req.Output()); err != nil {
		return fmt.Errorf("error while uploading the output : %w", err)
	}
	r.publish(ctx, log, req.JobId, progress_broker.Done, Done{OutputKey: req.Output()})

	// Optionally, we can also clean up the used assets from the remote object storage
	if req.Options.DeleteAssetsFromObjStore {
		if delErr := r.deleteRemoteAssets(ctx, req); delErr != nil {
			log.Warn(delErr)
		}
	}
	log.Info("Job complete !")
	return nil
}

// builder Command for the request, either from its preset or from its filter graph
func (r *Runner) builder(req *EncodingRequest, graph *filtergraph.Graph, paths []string) (*encoder.Builder, error) {
	var builder *encoder.Builder
	if req.Preset != "" {
		var err error
		if builder, err = encoder.Presets[req.Preset](paths); err != nil {
			return nil, &RequestError{Err: err}
		}
	} else {
		builder = encoder.NewBuilder()
		for i, in := range req.Inputs {
			builder.AddInput(&encoder.FileInput{Path: paths[i], Format: in.Format, Options: in.Options})
		}
		builder.SetFilterGraph(graph)
		if len(req.Maps) == 0 {
			builder.Map(graph.ExternalLabels(filtergraph.Output)...)
		}
	}
	return builder.Map(req.Maps...).AddOutputOption(req.OutputOptions...), nil
}

// encode Run the encoder, forwarding its progress, until it exits
func (r *Runner) encode(ctx context.Context, log *logrus.Entry, jobId string, enc *encoder.Encoder, target time.Duration) error {
	go enc.Start()
	for {
		select {
		case p := <-enc.PChan:
			p.TargetDuration = target
			log.Tracef("Progress %.1f%% : %+v", p.Percent(), *p)
			r.publish(ctx, log, jobId, progress_broker.InProgress, p)
		case e := <-enc.EChan:
			enc.Cancel()
			return fmt.Errorf("error while encoding : %w", e)
		case <-enc.Ctx.Done():
			return ctx.Err()
		}
	}
}

// targetDuration Longest input duration, 0 if unknown
func (r *Runner) targetDuration(ctx context.Context, log *logrus.Entry, paths []string) time.Duration {
	if r.opt.FFprobePath == "" {
		return 0
	}
	var longest time.Duration
	for _, p := range paths {
		d, err := probe.GetDuration(ctx, r.opt.FFprobePath, p)
		if err != nil {
			log.Debugf("No duration for %s : %s", p, err)
			continue
		}
		if d > longest {
			longest = d
		}
	}
	return longest
}

func (r *Runner) publish(ctx context.Context, log *logrus.Entry, jobId string, state progress_broker.EncodeState, data interface{}) {
	if r.broker == nil {
		return
	}
	if p, ok := data.(*console_parser.EncodingProgress); ok {
		data = *p
	}
	err := r.broker.SendProgress(ctx, progress_broker.EncodeInfos{JobId: jobId, State: state, Data: data})
	if err != nil {
		log.Warn(err)
	}
}

func (r *Runner) deleteRemoteAssets(ctx context.Context, req *EncodingRequest) error {
	var failures []string
	for _, in := range req.Inputs {
		if in.Key == "" {
			continue
		}
		if err := r.store.Delete(ctx, in.Key); err != nil {
			failures = append(failures, in.Key)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf(`failed to delete "%s" from remote object storage`, strings.Join(failures, ", "))
	}
	return nil
}
