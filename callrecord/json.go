package callrecord

import "encoding/json"

// JSON marshals a SampleReport's flattened field set, the same shape the
// original driver's run() wrote to its JSON sidecar file.
func JSON(r SampleReport) ([]byte, error) {
	return json.MarshalIndent(ReportFields(r), "", "  ")
}
