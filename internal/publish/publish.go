// Package publish uploads build outputs to blob storage under a versioned
// folder and maintains the version manifest.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/atlasgen/internal/pipeline"
)

const (
	manifestName   = "manifest.json"
	buildPrefix    = "data-"
	maxConcurrency = 4
)

// UploadedFile is one uploaded artifact as listed in the manifest.
type UploadedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int    `json:"size"`
}

// Manifest describes the latest build of one data version.
type Manifest struct {
	Version        string         `json:"version"`
	UploadDate     string         `json:"uploadDate"`
	LatestBuild    string         `json:"latestBuild"`
	TotalFiles     int            `json:"totalFiles"`
	Files          []UploadedFile `json:"files"`
	PreviousBuilds []string       `json:"previousBuilds"`
}

// Publisher writes builds to v<version>/data-<build id>/ and keeps the most
// recent keep builds of that version, the new one included.
type Publisher struct {
	store   Store
	version string
	keep    int
	log     *slog.Logger
	now     func() time.Time
}

func NewPublisher(store Store, version string, keep int, log *slog.Logger) *Publisher {
	if keep < 1 {
		keep = 1
	}
	return &Publisher{store: store, version: version, keep: keep, log: log, now: time.Now}
}

func (p *Publisher) Name() string { return "blob" }

// Deliver publishes the artifacts of out. It satisfies pipeline.Sink.
func (p *Publisher) Deliver(ctx context.Context, out *pipeline.Output, arts []pipeline.Artifact) error {
	_, err := p.Publish(ctx, out.BuildID, arts)
	return err
}

func (p *Publisher) versionFolder() string {
	return "v" + p.version
}

// Publish uploads arts as build buildID, rewrites the manifest and deletes
// builds beyond the retention limit.
func (p *Publisher) Publish(ctx context.Context, buildID string, arts []pipeline.Artifact) (*Manifest, error) {
	if len(arts) == 0 {
		return nil, errors.New("nothing to publish")
	}
	versionFolder := p.versionFolder()
	buildFolder := buildPrefix + buildID
	log := p.log.With("folder", versionFolder+"/"+buildFolder)

	existing, err := p.builds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	existing = slices.DeleteFunc(existing, func(b string) bool { return b == buildFolder })
	log.Info("publishing build", "files", len(arts), "existing_builds", len(existing))

	files := make([]UploadedFile, len(arts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, a := range arts {
		g.Go(func() error {
			key := versionFolder + "/" + buildFolder + "/" + a.Name
			if err := p.store.Put(gctx, key, a.ContentType, a.Data); err != nil {
				return fmt.Errorf("upload %s: %w", a.Name, err)
			}
			files[i] = UploadedFile{Name: a.Name, URL: p.store.URL(key), Size: len(a.Data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept, stale := SplitBuilds(existing, p.keep-1)
	m := &Manifest{
		Version:        p.version,
		UploadDate:     p.now().UTC().Format(time.RFC3339),
		LatestBuild:    buildFolder,
		TotalFiles:     len(files),
		Files:          files,
		PreviousBuilds: kept,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := p.store.Put(ctx, versionFolder+"/"+manifestName, "application/json", data); err != nil {
		return nil, fmt.Errorf("upload manifest: %w", err)
	}
	log.Info("manifest uploaded", "previous_builds", len(kept))

	if len(stale) > 0 {
		log.Info("removing old builds", "builds", stale)
		if err := p.deleteBuilds(ctx, stale); err != nil {
			return m, fmt.Errorf("delete old builds: %w", err)
		}
	}
	return m, nil
}

// Manifest returns the current manifest of the version, or nil when none
// has been published.
func (p *Publisher) Manifest(ctx context.Context) (*Manifest, error) {
	data, err := p.store.Get(ctx, p.versionFolder()+"/"+manifestName)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// builds lists the build folders of the version.
func (p *Publisher) builds(ctx context.Context) ([]string, error) {
	prefix := p.versionFolder() + "/"
	keys, err := p.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range keys {
		folder, _, ok := strings.Cut(strings.TrimPrefix(k, prefix), "/")
		if !ok || !strings.HasPrefix(folder, buildPrefix) {
			continue
		}
		if !slices.Contains(out, folder) {
			out = append(out, folder)
		}
	}
	return out, nil
}

func (p *Publisher) deleteBuilds(ctx context.Context, builds []string) error {
	for _, b := range builds {
		keys, err := p.store.List(ctx, p.versionFolder()+"/"+b+"/")
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := p.store.Remove(ctx, k); err != nil {
				return fmt.Errorf("remove %s: %w", k, err)
			}
		}
	}
	return nil
}

// SplitBuilds orders builds newest first and splits them into the keep most
// recent and the rest. Build folders carry time-ordered ids, so newest first
// is reverse lexical order.
func SplitBuilds(builds []string, keep int) (kept, stale []string) {
	sorted := append([]string{}, builds...)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	if keep < 0 {
		keep = 0
	}
	if keep >= len(sorted) {
		return sorted, []string{}
	}
	return sorted[:keep], sorted[keep:]
}
