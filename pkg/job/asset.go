package job

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// fetchAssets Concurrently download all inputs. Paths are returned in input order. On failure, the assets
// already downloaded are removed
func (r *Runner) fetchAssets(ctx context.Context, log *logrus.Entry, inputs []Input) ([]string, error) {
	fCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		index int
		path  string
		err   error
	}
	results := make(chan result, len(inputs))
	// Fire all downloads concurrently
	for i, in := range inputs {
		go func(i int, in Input) {
			p, err := r.fetchAsset(fCtx, log, in)
			results <- result{i, p, err}
		}(i, in)
	}

	paths := make([]string, len(inputs))
	var firstErr error
	for range inputs {
		res := <-results
		if res.err != nil {
			// If any download fails, abort everything
			if firstErr == nil {
				firstErr = res.err
				cancel()
			}
			continue
		}
		paths[res.index] = res.path
	}
	if firstErr != nil {
		cleanUpAssets(log, paths)
		return nil, fmt.Errorf("error while downloading required assets : %w", firstErr)
	}
	return paths, nil
}

// fetchAsset Download a single input, retrying with an exponential backoff
func (r *Runner) fetchAsset(ctx context.Context, log *logrus.Entry, in Input) (string, error) {
	var err error
	for attempt := 0; ; attempt++ {
		var p string
		if p, err = r.download(ctx, in); err == nil {
			return p, nil
		}
		if attempt >= r.opt.MaxRetry {
			return "", err
		}
		log.WithFields(logrus.Fields{"attempt": attempt, "asset": in.location()}).
			Warnf("could not download asset : %s", err)
		// Assets may not be available right away, wait for them
		select {
		case <-time.After(r.opt.RetryBaseDelay << attempt):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (r *Runner) download(ctx context.Context, in Input) (string, error) {
	if in.Key != "" {
		return r.store.Download(ctx, in.Key)
	}
	if r.fetcher == nil {
		return "", fmt.Errorf("cannot fetch %s : no http fetcher configured", in.Url)
	}
	return r.fetcher.Fetch(ctx, in.Url)
}

func (in Input) location() string {
	if in.Key != "" {
		return in.Key
	}
	return in.Url
}

// Remove all assets form disk
func cleanUpAssets(log *logrus.Entry, paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		log.Debugf("Deleting asset %s", p)
		if err := os.Remove(p); err != nil {
			log.Warnf("Could not delete asset %s : %s", p, err)
		}
	}
}
