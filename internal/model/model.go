// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package model defines the data types shared across Jupiter's scanner,
// analyzer, graph, history, and plugin subsystems. Values of these types are
// produced once and then treated as immutable: enrichment happens by copy,
// never by mutation, so a ScanReport or DependencyGraph can be cached, diffed,
// and handed to plugins without a lock.
package model

import "time"

// FileRecord describes one file observed during a scan.
type FileRecord struct {
	Path            string    `json:"path"`
	SizeBytes       int64     `json:"size_bytes"`
	ModifiedAt      time.Time `json:"modified_at"`
	LanguageTag     string    `json:"language_tag"`
	ContentHash     string    `json:"content_hash,omitempty"`
	ScanFingerprint string    `json:"scan_fingerprint"`
	AnalysisError   string    `json:"analysis_error,omitempty"`
	SkippedLarge    bool      `json:"skipped_large,omitempty"`
}

// ScanFingerprintOf derives the fingerprint string C2/C4 compare against the
// cache: the pair (size, mtime) collapsed to one comparable token.
func ScanFingerprintOf(size int64, modifiedAt time.Time) string {
	return modifiedAt.UTC().Format(time.RFC3339Nano) + ":" + itoa(size)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SymbolKind enumerates the symbol kinds Jupiter's language analyzers report.
type SymbolKind string

const (
	SymbolFunction SymbolKind = "function"
	SymbolMethod   SymbolKind = "method"
	SymbolClass    SymbolKind = "class"
)

// SymbolRecord describes one function/method/class found in a file.
type SymbolRecord struct {
	FilePath              string     `json:"file_path"`
	Name                  string     `json:"name"`
	QualifiedName         string     `json:"qualified_name"`
	Kind                  SymbolKind `json:"kind"`
	StartLine             int        `json:"start_line"`
	EndLine               int        `json:"end_line"`
	DocPresent            bool       `json:"doc_present"`
	DecoratorTags         []string   `json:"decorator_tags,omitempty"`
	CyclomaticComplexity  int        `json:"cyclomatic_complexity"`
	DynamicallyRegistered bool       `json:"dynamically_registered"`
}

// ID implements the identity rule of spec §3: path + "::" + qualified_name.
func (s SymbolRecord) ID() string {
	return s.FilePath + "::" + s.QualifiedName
}

// CallResolution enumerates whether a CallEdge's callee was matched to a
// known symbol.
type CallResolution string

const (
	CallResolved   CallResolution = "resolved"
	CallUnresolved CallResolution = "unresolved"
)

// CallEdge is one call site. Duplicates are meaningful (multigraph).
type CallEdge struct {
	CallerSymbolID string         `json:"caller_symbol_id"`
	CalleeName     string         `json:"callee_name"`
	Resolution     CallResolution `json:"resolution"`
}

// ImportRecord is a file->module/file import edge as extracted by a
// language analyzer, prior to graph resolution.
type ImportRecord struct {
	Target   string `json:"target"`
	External bool   `json:"external"`
}

// DuplicationFingerprint is a rolling hash of one normalized n-line window,
// used by the analyzer to cluster duplicated code.
type DuplicationFingerprint struct {
	Hash      uint64 `json:"hash"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// FileAnalysis is the cached per-file derivation, keyed by (path,
// scan_fingerprint) so any content change invalidates it.
type FileAnalysis struct {
	Path            string                   `json:"path"`
	ScanFingerprint string                   `json:"scan_fingerprint"`
	Symbols         []SymbolRecord           `json:"symbols"`
	Imports         []ImportRecord           `json:"imports"`
	Calls           []CallEdge               `json:"calls"`
	Duplication     []DuplicationFingerprint `json:"duplication,omitempty"`
	LanguageTag     string                   `json:"language_tag"`
}

// ScanReport is the immutable output of one scanner run.
type ScanReport struct {
	ProjectRoot     string                  `json:"project_root"`
	CreatedAt       time.Time               `json:"created_at"`
	JupiterVersion  string                  `json:"jupiter_version"`
	Files           []FileRecord            `json:"files"`
	Analyses        map[string]FileAnalysis `json:"analyses"`
	LanguageSummary map[string]int          `json:"language_summary"`
	PluginSections  map[string]any          `json:"plugin_sections,omitempty"`
}

// UsageStatus is the §3 usage-confidence classification.
type UsageStatus string

const (
	UsageUsed          UsageStatus = "used"
	UsageLikelyUsed    UsageStatus = "likely_used"
	UsagePossiblyUnused UsageStatus = "possibly_unused"
	UsageUnused        UsageStatus = "unused"
)

// FunctionUsageDetail carries the per-symbol usage classification.
type FunctionUsageDetail struct {
	SymbolID   string      `json:"symbol_id"`
	Path       string      `json:"path"`
	Name       string      `json:"name"`
	Status     UsageStatus `json:"status"`
	Confidence float64     `json:"confidence"`
}

// Hotspot ranks a symbol or file by a metric (complexity or duplication
// cluster size).
type Hotspot struct {
	Path       string  `json:"path"`
	SymbolName string  `json:"symbol_name,omitempty"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
}

// AnalysisSummary aggregates a ScanReport.
type AnalysisSummary struct {
	FileCount           int                   `json:"file_count"`
	TotalSizeBytes       int64                 `json:"total_size_bytes"`
	TopLargestFiles      []FileRecord          `json:"top_largest_files"`
	ComplexityHotspots   []Hotspot             `json:"complexity_hotspots"`
	DuplicationHotspots  []Hotspot             `json:"duplication_hotspots"`
	FunctionUsageDetails []FunctionUsageDetail `json:"function_usage_details"`
	UsageSummary         map[UsageStatus]int   `json:"usage_summary"`
}

// NodeKind enumerates DependencyGraph node kinds.
type NodeKind string

const (
	NodeFile   NodeKind = "file"
	NodeSymbol NodeKind = "symbol"
)

// GraphNode is one file or symbol node in a DependencyGraph.
type GraphNode struct {
	ID         string   `json:"id"`
	Kind       NodeKind `json:"kind"`
	Path       string   `json:"path"`
	Label      string   `json:"label"`
	DegreeIn   int      `json:"degree_in"`
	DegreeOut  int      `json:"degree_out"`
}

// EdgeKind enumerates DependencyGraph edge kinds.
type EdgeKind string

const (
	EdgeContains EdgeKind = "contains"
	EdgeImports  EdgeKind = "imports"
	EdgeCalls    EdgeKind = "calls"
)

// GraphEdge connects two DependencyGraph nodes.
type GraphEdge struct {
	Kind       EdgeKind       `json:"kind"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Resolution CallResolution `json:"resolution,omitempty"`
}

// DependencyGraph is the file/symbol/import/call graph built from a
// ScanReport.
type DependencyGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// ImpactType enumerates simulate_remove impact classifications.
type ImpactType string

const (
	ImpactBrokenImport ImpactType = "broken_import"
	ImpactBrokenCall   ImpactType = "broken_call"
	ImpactOrphaned     ImpactType = "orphaned"
)

// RiskScore is the overall simulate_remove risk classification.
type RiskScore string

const (
	RiskLow    RiskScore = "low"
	RiskMedium RiskScore = "medium"
	RiskHigh   RiskScore = "high"
)

// Impact is one affected node from a removal simulation.
type Impact struct {
	Target     string     `json:"target"`
	ImpactType ImpactType `json:"impact_type"`
}

// ImpactReport is the result of simulate_remove.
type ImpactReport struct {
	TargetType string    `json:"target_type"`
	Target     string    `json:"target"`
	Impacts    []Impact  `json:"impacts"`
	RiskScore  RiskScore `json:"risk_score"`
}

// SnapshotMetadata is the small, listable half of a persisted snapshot.
type SnapshotMetadata struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Label          string    `json:"label,omitempty"`
	JupiterVersion string    `json:"jupiter_version"`
	BackendName    string    `json:"backend_name"`
	ProjectRoot    string    `json:"project_root"`
	FileCount      int       `json:"file_count"`
	SchemaVersion  int       `json:"schema_version"`
}

// MetricsDelta captures aggregate count deltas between two snapshots.
type MetricsDelta struct {
	FileCount     int `json:"file_count"`
	FunctionCount int `json:"function_count"`
	TotalSizeDiff int64 `json:"total_size_diff"`
}

// FileDelta describes one file's before/after sizes in a diff.
type FileDelta struct {
	Path       string `json:"path"`
	BeforeSize int64  `json:"before_size"`
	AfterSize  int64  `json:"after_size"`
}

// SnapshotDiff is the structured diff between two snapshots.
type SnapshotDiff struct {
	MetricsDelta     MetricsDelta `json:"metrics_delta"`
	FilesAdded       []FileRecord `json:"files_added"`
	FilesRemoved     []FileRecord `json:"files_removed"`
	FilesModified    []FileDelta  `json:"files_modified"`
	FunctionsAdded   []string     `json:"functions_added"`
	FunctionsRemoved []string     `json:"functions_removed"`
}

// PluginType enumerates the plugin kinds a manifest may declare.
type PluginType string

const (
	PluginCore   PluginType = "core"
	PluginSystem PluginType = "system"
	PluginTool   PluginType = "tool"
)

// PluginDependency is one entry of a manifest's dependency list.
type PluginDependency struct {
	PluginID     string `json:"plugin_id"`
	VersionRange string `json:"version_range"`
	Optional     bool   `json:"optional"`
}

// PluginEntrypoints names the files/symbols a manifest declares for each
// lifecycle/contribution hook. An empty string means the plugin does not
// implement that hook.
type PluginEntrypoints struct {
	Init     string `json:"init,omitempty"`
	Shutdown string `json:"shutdown,omitempty"`
	Health   string `json:"health,omitempty"`
	Metrics  string `json:"metrics,omitempty"`
	API      string `json:"api,omitempty"`
	CLI      string `json:"cli,omitempty"`
	UI       string `json:"ui,omitempty"`
}

// TrustLevel is a signature-derived trust classification (§4.13).
type TrustLevel string

const (
	TrustOfficial TrustLevel = "official"
	TrustVerified TrustLevel = "verified"
	TrustCommunity TrustLevel = "community"
)

// PluginManifest is the on-disk, user-authored description of a plugin.
type PluginManifest struct {
	ID                 string             `yaml:"id" json:"id"`
	Version             string             `yaml:"version" json:"version"`
	Type                 PluginType         `yaml:"type" json:"type"`
	CompatibilityRange   string             `yaml:"compatibility_range" json:"compatibility_range"`
	Entrypoints          PluginEntrypoints  `yaml:"entrypoints" json:"entrypoints"`
	Permissions          []string           `yaml:"permissions" json:"permissions"`
	ConfigSchema         map[string]any     `yaml:"config_schema,omitempty" json:"config_schema,omitempty"`
	ConfigSchemaVersion  int                `yaml:"config_schema_version,omitempty" json:"config_schema_version,omitempty"`
	Dependencies         []PluginDependency `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	TrustLevel           TrustLevel         `yaml:"trust_level,omitempty" json:"trust_level,omitempty"`
	Signature            string             `yaml:"signature,omitempty" json:"signature,omitempty"`
}

// PluginStatus enumerates PluginRegistration.Status values.
type PluginStatus string

const (
	PluginDiscovered PluginStatus = "discovered"
	PluginLoading    PluginStatus = "loading"
	PluginReady      PluginStatus = "ready"
	PluginError      PluginStatus = "error"
	PluginDisabled   PluginStatus = "disabled"
)

// UIPanelDescriptor is a plugin-contributed UI panel description.
type UIPanelDescriptor struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Route string `json:"route"`
}

// PluginRegistration is the runtime shadow of a manifest, owned by the
// plugin bridge and destroyed on unload.
type PluginRegistration struct {
	Manifest          PluginManifest      `json:"manifest"`
	Status            PluginStatus        `json:"status"`
	ErrorReason       string              `json:"error_reason,omitempty"`
	SubscribedTopics  []string            `json:"subscribed_topics,omitempty"`
	ContributedVerbs  []string            `json:"contributed_verbs,omitempty"`
	HTTPRoutePrefix   string              `json:"http_route_prefix,omitempty"`
	UIPanels          []UIPanelDescriptor `json:"ui_panels,omitempty"`
	CircuitBreakerTrips int               `json:"circuit_breaker_trips"`
	LastHealthOK      bool                `json:"last_health_ok"`
	Legacy            bool                `json:"legacy"`
}

// JobState enumerates Job.State values.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Job is one async unit of plugin/job-manager work.
type Job struct {
	JobID           string     `json:"job_id"`
	PluginID        string     `json:"plugin_id"`
	State           JobState   `json:"state"`
	Progress        int        `json:"progress"`
	Message         string     `json:"message,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	CancelRequested bool       `json:"cancel_requested"`
	FailureReason   string     `json:"failure_reason,omitempty"`
}

// Topic enumerates the Event bus's fixed topic set.
type Topic string

const (
	TopicScanStarted        Topic = "SCAN_STARTED"
	TopicScanFinished       Topic = "SCAN_FINISHED"
	TopicRunStarted         Topic = "RUN_STARTED"
	TopicRunFinished        Topic = "RUN_FINISHED"
	TopicConfigUpdated      Topic = "CONFIG_UPDATED"
	TopicPluginToggled      Topic = "PLUGIN_TOGGLED"
	TopicPluginReloaded     Topic = "PLUGIN_RELOADED"
	TopicSnapshotCreated    Topic = "SNAPSHOT_CREATED"
	TopicJobStarted         Topic = "JOB_STARTED"
	TopicJobProgress        Topic = "JOB_PROGRESS"
	TopicJobCompleted       Topic = "JOB_COMPLETED"
	TopicJobFailed          Topic = "JOB_FAILED"
	TopicPluginNotification Topic = "PLUGIN_NOTIFICATION"
)

// Event is one message delivered through the event bus.
type Event struct {
	Topic      Topic     `json:"topic"`
	Payload    any       `json:"payload"`
	ProducedAt time.Time `json:"produced_at"`
}
