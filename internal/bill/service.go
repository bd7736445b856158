package bill

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/splitzy/internal/scanning"
	"github.com/zombor/splitzy/internal/settlement"
)

// ErrExtractionUnavailable is returned when the vision model could not be
// reached or failed. It never means the image is not a bill.
var ErrExtractionUnavailable = errors.New("bill extraction unavailable")

// IDGenerator generates unique IDs for scans
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Config holds service settings
type Config struct {
	// Model names the extraction model; it scopes cache entries
	Model string
	// Currency is the symbol used in settlement instructions
	Currency string
}

// Scan is the editable result of reading a bill photo
type Scan struct {
	ID        string                `json:"id"`
	Filename  string                `json:"filename"`
	LineItems []settlement.LineItem `json:"line_items"`
	TaxAmount settlement.Amount     `json:"tax_amount"`
	Cached    bool                  `json:"cached"`
	ScannedAt time.Time             `json:"scanned_at"`
}

// Split is the settlement report for a bill snapshot
type Split struct {
	*settlement.Result
	Currency     string `json:"currency"`
	Instructions string `json:"instructions"`
}

// Service reads bills and computes splits
type Service struct {
	extractor   scanning.Extractor
	cache       Cache
	metrics     *Metrics
	config      Config
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// A nil cache disables caching.
func NewService(extractor scanning.Extractor, cache Cache, metrics *Metrics, config Config) *Service {
	return NewServiceWithDeps(extractor, cache, metrics, config, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(extractor scanning.Extractor, cache Cache, metrics *Metrics, config Config, idGen IDGenerator, timeSrc TimeSource) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	if config.Currency == "" {
		config.Currency = "₹"
	}
	return &Service{
		extractor:   extractor,
		cache:       cache,
		metrics:     metrics,
		config:      config,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// cacheKey identifies an image for a given model
func (s *Service) cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return s.config.Model + ":" + hex.EncodeToString(sum[:])
}

// extract returns the model reply for an image, from cache when possible
func (s *Service) extract(ctx context.Context, key string, data []byte, contentType string) (string, bool, error) {
	cached, err := s.cache.Get(key)
	if err != nil {
		slog.Warn("Failed to read extraction cache", "key", key, "error", err)
	}
	if cached != nil {
		return cached.Text, true, nil
	}

	start := s.timeSource.Now()
	text, err := s.extractor.ExtractBill(ctx, data, contentType)
	s.metrics.observeExtraction(s.timeSource.Now().Sub(start))
	if err != nil {
		return "", false, err
	}
	return text, false, nil
}

// remember caches a model reply; failures only cost a future model call
func (s *Service) remember(key, text string) {
	err := s.cache.Put(&Extraction{
		Key:       key,
		Model:     s.config.Model,
		Text:      text,
		CreatedAt: s.timeSource.Now(),
	})
	if err != nil {
		slog.Warn("Failed to write extraction cache", "key", key, "error", err)
	}
}

// ScanBill reads a bill photo and returns its line items and tax ready for
// the user to review and assign.
func (s *Service) ScanBill(ctx context.Context, filename string, data []byte, contentType string) (*Scan, error) {
	id := s.idGenerator.Generate()
	key := s.cacheKey(data)

	text, cached, err := s.extract(ctx, key, data, contentType)
	if errors.Is(err, scanning.ErrUnsupportedImage) {
		// A bad upload, not a model outage
		slog.Warn("Rejected unreadable upload",
			"scan_id", id,
			"filename", filename,
			"content_type", contentType,
			"error", err,
		)
		s.metrics.observeScan(resultUnsupported)
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if err != nil {
		slog.Error("Failed to extract bill",
			"scan_id", id,
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.metrics.observeScan(resultUnavailable)
		return nil, fmt.Errorf("%w: %w", ErrExtractionUnavailable, err)
	}

	parsed, err := scanning.ParseBill(text)
	if errors.Is(err, scanning.ErrNotABill) {
		// The model's verdict is stable for the same image
		if !cached {
			s.remember(key, text)
		}
		s.metrics.observeScan(resultNotABill)
		return nil, err
	}
	if err != nil {
		slog.Warn("Failed to parse model reply", "scan_id", id, "filename", filename, "error", err)
		s.metrics.observeScan(resultUnparsable)
		return nil, fmt.Errorf("parsing bill: %w", err)
	}

	if cached {
		s.metrics.observeScan(resultCached)
	} else {
		s.remember(key, text)
		s.metrics.observeScan(resultOK)
	}

	items := make([]settlement.LineItem, 0, len(parsed.LineItems))
	for _, li := range parsed.LineItems {
		items = append(items, settlement.LineItem{
			Name:         li.Name,
			Quantity:     settlement.Amount(li.Quantity),
			UnitPrice:    settlement.Amount(li.Price),
			Participants: []string{},
		})
	}

	slog.Info("Scanned bill", "scan_id", id, "items", len(items), "cached", cached)

	return &Scan{
		ID:        id,
		Filename:  filename,
		LineItems: items,
		TaxAmount: settlement.Amount(parsed.TaxAmount),
		Cached:    cached,
		ScannedAt: s.timeSource.Now(),
	}, nil
}

// Calculate computes shares, the settlement plan and the readiness summary
// for a bill snapshot.
func (s *Service) Calculate(b settlement.Bill) (*Split, error) {
	result, err := settlement.Compute(b)
	if err != nil {
		s.metrics.observeSplit(resultInvalidInput)
		return nil, fmt.Errorf("computing split: %w", err)
	}
	s.metrics.observeSplit(resultOK)

	return &Split{
		Result:       result,
		Currency:     s.config.Currency,
		Instructions: settlement.FormatPlan(result.Transactions, s.config.Currency),
	}, nil
}
