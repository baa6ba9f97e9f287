package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"papertalk-backend/logger"
)

// upsertBatchSize keeps each request under Pinecone's 2 MB payload limit for 768-d vectors
const upsertBatchSize = 100

const defaultControlURL = "https://api.pinecone.io"

// PineconeConfig holds data plane settings for one Pinecone index
type PineconeConfig struct {
	APIKey     string
	APIVersion string
	// IndexHost is the index data plane host. A value with a scheme is used verbatim.
	// When empty, the host is looked up by IndexName on the control plane.
	IndexHost  string
	IndexName  string
	ControlURL string
	Timeout    time.Duration
}

// Pinecone talks to the Pinecone data plane over REST
type Pinecone struct {
	log     *logger.Logger
	cfg     PineconeConfig
	baseURL string
	http    *http.Client
}

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace"`
}

type indexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// NewPinecone creates a Pinecone data plane client. Without IndexHost it
// resolves the host of IndexName through the control plane.
func NewPinecone(ctx context.Context, log *logger.Logger, cfg PineconeConfig) (*Pinecone, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Pinecone API key")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2025-10"
	}
	if strings.TrimSpace(cfg.ControlURL) == "" {
		cfg.ControlURL = defaultControlURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	host := strings.TrimSpace(cfg.IndexHost)
	if host == "" {
		if strings.TrimSpace(cfg.IndexName) == "" {
			return nil, fmt.Errorf("missing Pinecone index host or index name")
		}
		desc, err := describeIndex(ctx, httpClient, cfg)
		if err != nil {
			return nil, err
		}
		if !desc.Status.Ready {
			log.Warn("pinecone index not ready", "index", cfg.IndexName, "state", desc.Status.State)
		}
		host = desc.Host
	}

	baseURL := host
	if !strings.Contains(host, "://") {
		baseURL = "https://" + host
	}

	log.Info("pinecone index configured", "index", cfg.IndexName, "host", baseURL)
	return &Pinecone{
		log:     log.With("client", "PineconeIndex"),
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

// describeIndex reads the index description, including its data plane host
func describeIndex(ctx context.Context, httpClient *http.Client, cfg PineconeConfig) (*indexDescription, error) {
	u := strings.TrimRight(cfg.ControlURL, "/") + "/indexes/" + url.PathEscape(strings.TrimSpace(cfg.IndexName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", cfg.APIKey)
	req.Header.Set("X-Pinecone-Api-Version", cfg.APIVersion)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone describe_index: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pinecone describe_index http %d: %s", resp.StatusCode, raw)
	}

	var out indexDescription
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pinecone describe_index decode: %w", err)
	}
	if strings.TrimSpace(out.Host) == "" {
		return nil, fmt.Errorf("pinecone describe_index returned empty host")
	}
	return &out, nil
}

// Upsert writes vectors in batches
func (p *Pinecone) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if strings.TrimSpace(namespace) == "" {
		return fmt.Errorf("namespace required")
	}

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))

		req := upsertRequest{Namespace: namespace, Vectors: make([]pineconeVector, 0, end-start)}
		for _, v := range vectors[start:end] {
			req.Vectors = append(req.Vectors, pineconeVector{
				ID:     v.ID,
				Values: v.Values,
				Metadata: map[string]any{
					"text":       v.Text,
					"chunkIndex": v.ChunkIndex,
				},
			})
		}

		status, raw, err := p.post(ctx, "/vectors/upsert", req)
		if err != nil {
			return fmt.Errorf("pinecone upsert: %w", err)
		}
		if status < 200 || status >= 300 {
			return fmt.Errorf("pinecone upsert http %d: %s", status, raw)
		}
	}
	return nil
}

// DeleteNamespace deletes all vectors of namespace. Pinecone answers 404 for
// namespaces that were never written or are already gone.
func (p *Pinecone) DeleteNamespace(ctx context.Context, namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return fmt.Errorf("namespace required")
	}

	status, raw, err := p.post(ctx, "/vectors/delete", deleteRequest{DeleteAll: true, Namespace: namespace})
	if err != nil {
		return fmt.Errorf("pinecone delete: %w", err)
	}
	switch {
	case status == http.StatusNotFound:
		p.log.Debug("namespace already absent", "namespace", namespace)
		return nil
	case status < 200 || status >= 300:
		return fmt.Errorf("pinecone delete http %d: %s", status, raw)
	}
	return nil
}

func (p *Pinecone) post(ctx context.Context, path string, body any) (int, string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, &buf)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Api-Key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-Api-Version", p.cfg.APIVersion)

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw), nil
}
