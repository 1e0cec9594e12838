// internal/artifacts/loader.go
package artifacts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/models"
	"credx-fairscore/pkg/registry"
)

// ExpectedRegionClasses is the number of regions the stock encoders know.
const ExpectedRegionClasses = 5

// Artifact load outcomes recorded in Diagnostics.
const (
	StatusLoaded   = "loaded"
	StatusWarning  = "warning"
	StatusDisabled = "disabled"
	StatusMissing  = "missing"
	StatusFatal    = "fatal"
)

// Diagnostic is the load outcome of one artifact.
type Diagnostic struct {
	Artifact string `json:"artifact"`
	Key      string `json:"key"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// Diagnostics lists what happened while loading a bundle, in load order.
type Diagnostics []Diagnostic

// Fatal reports whether any artifact prevented the bundle from loading.
func (d Diagnostics) Fatal() bool {
	for _, e := range d {
		if e.Status == StatusFatal {
			return true
		}
	}
	return false
}

// LoadedScorer pairs a registry entry with its fitted classifier.
type LoadedScorer struct {
	registry.ScorerEntry
	Model Classifier
}

// Bundle is the read-only set of artifacts shared by every request.
type Bundle struct {
	Schema      *FeatureSchema
	Scaler      *StandardScaler
	Encoders    LabelEncoders
	IncomeModel Regressor
	Scorers     []LoadedScorer
	Diagnostics Diagnostics
}

// Primary returns the authoritative scorer.
func (b *Bundle) Primary() (LoadedScorer, bool) {
	for _, s := range b.Scorers {
		if s.Role == registry.RolePrimary {
			return s, true
		}
	}
	return LoadedScorer{}, false
}

type loader struct {
	src   Source
	log   logger.Logger
	diags Diagnostics
}

// Load fetches and verifies every artifact the registry names. The scaler,
// schema and encoders are load-bearing; any problem with them, or a missing
// primary scorer, aborts the load. Other scorers that fail to load or have the
// wrong width are disabled, and the income model is optional. The returned
// diagnostics are complete even when an error is returned.
func Load(ctx context.Context, src Source, reg *registry.ModelRegistry, log logger.Logger) (*Bundle, Diagnostics, error) {
	if err := reg.Validate(); err != nil {
		return nil, nil, errors.NewArtifactMismatchError("registry", err.Error())
	}
	l := &loader{src: src, log: log.WithFields(map[string]interface{}{"artifactSource": src.Kind()})}
	b := &Bundle{}

	data, err := l.fetch(ctx, "feature_schema", reg.FeatureSchema)
	if err != nil {
		return nil, l.diags, err
	}
	if b.Schema, err = ParseFeatureSchema(data); err != nil {
		return nil, l.fatal("feature_schema", reg.FeatureSchema, err), err
	}
	l.ok("feature_schema", reg.FeatureSchema, fmt.Sprintf("%d features", b.Schema.Len()))
	if unknown := b.Schema.Unknown(models.DefaultFeatureOrder); len(unknown) > 0 {
		l.record(Diagnostic{Artifact: "feature_schema", Key: reg.FeatureSchema, Status: StatusWarning,
			Message: fmt.Sprintf("features not built by the pipeline read as zero: %s", strings.Join(unknown, ", "))})
	}

	if data, err = l.fetch(ctx, "scaler", reg.Scaler); err != nil {
		return nil, l.diags, err
	}
	if b.Scaler, err = ParseStandardScaler(data); err != nil {
		return nil, l.fatal("scaler", reg.Scaler, err), err
	}
	if b.Scaler.NFeatures() != b.Schema.Len() {
		err := errors.NewArtifactMismatchError("scaler",
			fmt.Sprintf("scaler expects %d features, schema has %d", b.Scaler.NFeatures(), b.Schema.Len()))
		return nil, l.fatal("scaler", reg.Scaler, err), err
	}
	l.ok("scaler", reg.Scaler, fmt.Sprintf("expects %d features", b.Scaler.NFeatures()))

	if data, err = l.fetch(ctx, "label_encoders", reg.Encoders); err != nil {
		return nil, l.diags, err
	}
	if b.Encoders, err = ParseLabelEncoders(data); err != nil {
		return nil, l.fatal("label_encoders", reg.Encoders, err), err
	}
	l.checkEncoders(reg.Encoders, b.Encoders)

	b.IncomeModel = l.loadIncomeModel(ctx, reg.IncomeModel)

	for _, entry := range reg.Scorers {
		if s, ok := l.loadScorer(ctx, entry); ok {
			b.Scorers = append(b.Scorers, s)
		}
	}
	if _, ok := b.Primary(); !ok {
		primary, _ := reg.Primary()
		err := errors.NewPrimaryModelUnavailableError(fmt.Sprintf("scorer %q could not be loaded", primary.Name))
		return nil, l.fatal(primary.Name, primary.Artifact, err), err
	}

	b.Diagnostics = l.diags
	return b, l.diags, nil
}

func (l *loader) fetch(ctx context.Context, artifact, key string) ([]byte, error) {
	data, err := l.src.Fetch(ctx, key)
	if err != nil {
		l.fatal(artifact, key, err)
		return nil, err
	}
	return data, nil
}

func (l *loader) record(d Diagnostic) Diagnostics {
	l.diags = append(l.diags, d)
	fields := map[string]interface{}{"artifact": d.Artifact, "key": d.Key, "status": d.Status}
	if d.Message != "" {
		fields["detail"] = d.Message
	}
	switch d.Status {
	case StatusLoaded:
		l.log.Info("artifact loaded", fields)
	case StatusFatal:
		l.log.Error("artifact unusable", fields)
	default:
		l.log.Warn("artifact degraded", fields)
	}
	return l.diags
}

func (l *loader) ok(artifact, key, msg string) {
	l.record(Diagnostic{Artifact: artifact, Key: key, Status: StatusLoaded, Message: msg})
}

func (l *loader) fatal(artifact, key string, err error) Diagnostics {
	return l.record(Diagnostic{Artifact: artifact, Key: key, Status: StatusFatal, Message: err.Error()})
}

func (l *loader) checkEncoders(key string, encs LabelEncoders) {
	region := encs.Region()
	l.ok("label_encoders", key, fmt.Sprintf("%d region classes, %d employment classes", region.Len(), encs.Employment().Len()))
	if region.Len() != ExpectedRegionClasses {
		l.record(Diagnostic{Artifact: "label_encoders", Key: key, Status: StatusWarning,
			Message: fmt.Sprintf("region encoder has %d classes, expected %d", region.Len(), ExpectedRegionClasses)})
	}
	names := make([]string, 0, len(encs))
	for name := range encs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !encs[name].Sorted() {
			l.record(Diagnostic{Artifact: "label_encoders", Key: key, Status: StatusWarning,
				Message: fmt.Sprintf("%s classes are not sorted; one-hot positions follow list order", name)})
		}
	}
}

func (l *loader) loadIncomeModel(ctx context.Context, key string) Regressor {
	if key == "" {
		l.record(Diagnostic{Artifact: "income_model", Status: StatusMissing, Message: "not configured; using default estimate"})
		return nil
	}
	data, err := l.src.Fetch(ctx, key)
	if err != nil {
		status := StatusDisabled
		if errors.HasCode(err, errors.ErrCodeArtifactNotFound) {
			status = StatusMissing
		}
		l.record(Diagnostic{Artifact: "income_model", Key: key, Status: status, Message: err.Error()})
		return nil
	}
	m, err := ParseRegressor("income_model", data)
	if err != nil {
		l.record(Diagnostic{Artifact: "income_model", Key: key, Status: StatusDisabled, Message: err.Error()})
		return nil
	}
	l.ok("income_model", key, fmt.Sprintf("expects %d features", m.NFeatures()))
	return m
}

func (l *loader) loadScorer(ctx context.Context, entry registry.ScorerEntry) (LoadedScorer, bool) {
	data, err := l.src.Fetch(ctx, entry.Artifact)
	if err != nil {
		l.record(Diagnostic{Artifact: entry.Name, Key: entry.Artifact, Status: StatusDisabled, Message: err.Error()})
		return LoadedScorer{}, false
	}
	m, err := ParseClassifier(entry.Name, data)
	if err != nil {
		l.record(Diagnostic{Artifact: entry.Name, Key: entry.Artifact, Status: StatusDisabled, Message: err.Error()})
		return LoadedScorer{}, false
	}
	if m.NFeatures() != entry.ExpectedWidth {
		l.record(Diagnostic{Artifact: entry.Name, Key: entry.Artifact, Status: StatusDisabled,
			Message: fmt.Sprintf("model expects %d features, layout %s needs %d", m.NFeatures(), entry.Layout, entry.ExpectedWidth)})
		return LoadedScorer{}, false
	}
	l.ok(entry.Name, entry.Artifact, fmt.Sprintf("%s scorer, %d features", entry.Role, m.NFeatures()))
	return LoadedScorer{ScorerEntry: entry, Model: m}, true
}
