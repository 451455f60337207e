// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package cgrag

import (
	"strings"
	"testing"
)

func TestParseResponse_ExtractsAnswerAndMissing(t *testing.T) {
	raw := `<ANSWER>
The login flow validates credentials then issues a session token.
</ANSWER>
<missing>
implementation of get_notes_service in api/routers/notes.py
token expiry policy
</missing>`

	parsed := ParseResponse(raw)
	if !strings.Contains(parsed.Answer, "validates credentials") {
		t.Errorf("expected answer text, got %q", parsed.Answer)
	}
	if len(parsed.Gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d: %v", len(parsed.Gaps), parsed.Gaps)
	}
	if parsed.Gaps[0] != "implementation of get_notes_service in api/routers/notes.py" {
		t.Errorf("unexpected gap text: %q", parsed.Gaps[0])
	}
}

func TestParseResponse_NoTagsTreatsWholeResponseAsAnswer(t *testing.T) {
	raw := "Plain text answer with no tags at all."
	parsed := ParseResponse(raw)
	if parsed.Answer != raw {
		t.Errorf("expected whole response as answer, got %q", parsed.Answer)
	}
	if len(parsed.Gaps) != 0 {
		t.Errorf("expected no gaps, got %v", parsed.Gaps)
	}
}

func TestParseResponse_NeverLeaksRawTags(t *testing.T) {
	raw := "<answer>Clean answer.</answer><missing>gap one</missing>"
	parsed := ParseResponse(raw)
	if strings.Contains(parsed.Answer, "<answer>") || strings.Contains(parsed.Answer, "</answer>") {
		t.Errorf("answer leaked raw tags: %q", parsed.Answer)
	}
}

func TestParseResponse_DanglingOpenAnswerTagIsStripped(t *testing.T) {
	raw := "<answer>Unterminated answer with no closing tag."
	parsed := ParseResponse(raw)
	if strings.Contains(parsed.Answer, "<answer>") {
		t.Errorf("answer leaked the dangling open tag: %q", parsed.Answer)
	}
	if !strings.Contains(parsed.Answer, "Unterminated answer") {
		t.Errorf("expected the body text to survive, got %q", parsed.Answer)
	}
}
