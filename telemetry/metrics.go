package telemetry

// Mutation log metrics
var (
	// EntriesAppendedTotal counts mutation entries appended to the log
	EntriesAppendedTotal Counter = NoopStat{}

	// EntriesDecodedTotal counts entries whose command text decoded cleanly
	EntriesDecodedTotal Counter = NoopStat{}

	// DecodeFailuresTotal counts decode failures by reason (record, checksum, commands)
	DecodeFailuresTotal CounterVec = noopCounterVec{}

	// LiveEntries tracks entries currently in the log
	LiveEntries Gauge = NoopStat{}
)

// RegisterMetrics binds the metric variables to the Prometheus registry.
// Without a registry everything stays a noop.
func RegisterMetrics() {
	EntriesAppendedTotal = NewCounter("entries_appended_total", "Mutation entries appended to the log")
	EntriesDecodedTotal = NewCounter("entries_decoded_total", "Mutation entries decoded successfully")
	DecodeFailuresTotal = NewCounterVec("decode_failures_total", "Mutation entry decode failures", []string{"reason"})
	LiveEntries = NewGauge("live_entries", "Mutation entries currently in the log")
}
