// SPDX-License-Identifier: EPL-2.0

package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLogger_Module(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWriter(&buf, false).Module("graph")
	l.Info().Str("id", "A").Msg("compiled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["m"] != "graph" || entry["id"] != "A" || entry["message"] != "compiled" {
		t.Errorf("entry = %v", entry)
	}
}

func TestLogger_DebugFiltered(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWriter(&buf, false).Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output with isDebug=false: %q", buf.String())
	}

	NewWriter(&buf, true).Debug().Msg("shown")
	if buf.Len() == 0 {
		t.Error("debug output missing with isDebug=true")
	}
}
