package document_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/markmeta/pkg/document"
	"github.com/calvinalkan/markmeta/pkg/structval"
)

func Test_Decode_ReturnsRecordAndBody_When_CoreFieldsPresent(t *testing.T) {
	t.Parallel()

	src := []byte(`---
title: My Project
author: J. Doe
created: 2025-01-01T00:00:00Z
modified: 2025-02-01T12:30:00Z
revision: 3
tags:
  - draft
  - wip
---
# My Project

Body text.
`)

	rec, body, err := document.Decode(src)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if rec.Title != "My Project" || rec.Author != "J. Doe" {
		t.Errorf("core strings: got %q by %q", rec.Title, rec.Author)
	}

	if !rec.Created.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("created: got %s", rec.Created)
	}

	if !rec.Modified.Equal(time.Date(2025, 2, 1, 12, 30, 0, 0, time.UTC)) {
		t.Errorf("modified: got %s", rec.Modified)
	}

	if rec.Revision != 3 {
		t.Errorf("revision: got %d", rec.Revision)
	}

	if diff := cmp.Diff([]string{"draft", "wip"}, rec.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	if len(rec.Extensions) != 0 {
		t.Errorf("unexpected extensions: %v", rec.Extensions)
	}

	if got, want := string(body), "# My Project\n\nBody text.\n"; got != want {
		t.Errorf("body: got %q, want %q", got, want)
	}
}

func Test_Decode_Fails_When_RequiredFieldMissing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		src       string
		wantField string
	}{
		{
			name:      "author absent",
			src:       "---\ntitle: My Project\ncreated: 2025-01-01T00:00:00Z\n---\nbody\n",
			wantField: "author",
		},
		{
			name:      "title absent",
			src:       "---\nauthor: J. Doe\ncreated: 2025-01-01T00:00:00Z\n---\nbody\n",
			wantField: "title",
		},
		{
			name:      "created absent",
			src:       "---\ntitle: My Project\nauthor: J. Doe\n---\nbody\n",
			wantField: "created",
		},
		{
			name:      "title empty",
			src:       "---\ntitle: \"\"\nauthor: J. Doe\ncreated: 2025-01-01T00:00:00Z\n---\nbody\n",
			wantField: "title",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := document.Decode([]byte(tc.src))

			var missing *document.MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("got %v, want *MissingFieldError", err)
			}

			if missing.Name != tc.wantField {
				t.Errorf("field: got %q, want %q", missing.Name, tc.wantField)
			}
		})
	}
}

func Test_Decode_Fails_When_CoreFieldMalformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
	}{
		{
			name: "title is a list",
			src:  "---\ntitle:\n  - a\n  - b\nauthor: J. Doe\ncreated: 2025-01-01T00:00:00Z\n---\n",
		},
		{
			name: "created is not a timestamp",
			src:  "---\ntitle: T\nauthor: A\ncreated: yesterday-ish\n---\n",
		},
		{
			name: "revision is a string",
			src:  "---\ntitle: T\nauthor: A\ncreated: 2025-01-01T00:00:00Z\nrevision: three\n---\n",
		},
		{
			name: "tags is a scalar",
			src:  "---\ntitle: T\nauthor: A\ncreated: 2025-01-01T00:00:00Z\ntags: draft\n---\n",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := document.Decode([]byte(tc.src))

			var mismatch *structval.TypeMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("got %v, want *TypeMismatchError", err)
			}
		})
	}
}

func Test_Decode_FoldsUnknownKeys_IntoExtensions(t *testing.T) {
	t.Parallel()

	src := []byte(`---
title: My Project
author: J. Doe
created: 2025-01-01T00:00:00Z
myapp:
  theme: dark
  count: 42
voice:
  rate: 1.5
---
body
`)

	rec, _, err := document.Decode(src)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(rec.Extensions) != 2 {
		t.Fatalf("extensions: got %d entries, want 2", len(rec.Extensions))
	}

	myapp, ok := rec.Extensions["myapp"]
	if !ok {
		t.Fatal("missing myapp extension")
	}

	if got, want := myapp.String(), `{"count":42,"theme":"dark"}`; got != want {
		t.Errorf("myapp canonical: got %s, want %s", got, want)
	}

	// Core keys must never leak into the extension map.
	for _, name := range []string{"title", "author", "created"} {
		if _, ok := rec.Extensions[name]; ok {
			t.Errorf("core field %q leaked into extensions", name)
		}
	}
}

func Test_EncodeDecode_IsFixedPoint(t *testing.T) {
	t.Parallel()

	settings, err := structval.FromTyped(map[string]any{"theme": "dark", "count": 42})
	if err != nil {
		t.Fatalf("FromTyped: %v", err)
	}

	cases := []struct {
		name string
		rec  *document.Record
		body string
	}{
		{
			name: "core only",
			rec: &document.Record{
				Title:   "My Project",
				Author:  "J. Doe",
				Created: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			body: "# My Project\n",
		},
		{
			name: "all optionals",
			rec: &document.Record{
				Title:    "My Project",
				Author:   "J. Doe",
				Created:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				Modified: time.Date(2025, 2, 1, 12, 30, 0, 0, time.UTC),
				Revision: 7,
				Tags:     []string{"draft", "wip"},
			},
			body: "body\n",
		},
		{
			name: "with extensions",
			rec: &document.Record{
				Title:      "My Project",
				Author:     "J. Doe",
				Created:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				Extensions: map[string]structval.Value{"myapp": settings},
			},
			body: "body\n",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			first, err := document.Encode(tc.rec, []byte(tc.body))
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			decoded, body, err := document.Decode(first)
			if err != nil {
				t.Fatalf("Decode: %v\npayload:\n%s", err, first)
			}

			if !tc.rec.Equal(decoded) {
				t.Errorf("record changed across round trip:\n  in:  %+v\n  out: %+v", tc.rec, decoded)
			}

			if string(body) != tc.body {
				t.Errorf("body: got %q, want %q", body, tc.body)
			}

			second, err := document.Encode(decoded, body)
			if err != nil {
				t.Fatalf("re-Encode: %v", err)
			}

			if !bytes.Equal(first, second) {
				t.Errorf("encode is not a fixed point:\nfirst:\n%s\nsecond:\n%s", first, second)
			}
		})
	}
}

func Test_Encode_EmitsCoreFields_InFixedOrder(t *testing.T) {
	t.Parallel()

	// Keys deliberately shuffled relative to the emit order.
	src := []byte(`---
tags:
  - wip
created: 2025-01-01T00:00:00Z
author: J. Doe
revision: 2
title: My Project
---
body
`)

	rec, body, err := document.Decode(src)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	out, err := document.Encode(rec, body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := `---
title: My Project
author: J. Doe
created: 2025-01-01T00:00:00Z
revision: 2
tags:
  - wip
---
body
`

	if string(out) != want {
		t.Errorf("payload mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func Test_Encode_OmitsZeroOptionals_And_EmptyExtensions(t *testing.T) {
	t.Parallel()

	rec := &document.Record{
		Title:      "My Project",
		Author:     "J. Doe",
		Created:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Extensions: map[string]structval.Value{},
	}

	out, err := document.Encode(rec, []byte("body\n"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := `---
title: My Project
author: J. Doe
created: 2025-01-01T00:00:00Z
---
body
`

	if string(out) != want {
		t.Errorf("payload mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func Test_Encode_Fails_When_RequiredFieldEmpty(t *testing.T) {
	t.Parallel()

	rec := &document.Record{
		Title:   "My Project",
		Created: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := document.Encode(rec, nil)

	var missing *document.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("got %v, want *MissingFieldError", err)
	}

	if missing.Name != document.FieldAuthor {
		t.Errorf("field: got %q, want %q", missing.Name, document.FieldAuthor)
	}
}

func Test_Decode_PreservesExtensions_AcrossUnrelatedEdits(t *testing.T) {
	t.Parallel()

	src := []byte(`---
title: My Project
author: J. Doe
created: 2025-01-01T00:00:00Z
voice:
  cast:
    - narrator
  rate: 1.5
---
body
`)

	rec, body, err := document.Decode(src)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// An edit touching only core metadata must re-emit foreign sections
	// untouched.
	rec.Revision = 1

	out, err := document.Encode(rec, body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	reread, _, err := document.Decode(out)
	if err != nil {
		t.Fatalf("re-Decode: %v", err)
	}

	voice, ok := reread.Extensions["voice"]
	if !ok {
		t.Fatal("voice extension lost across rewrite")
	}

	if got, want := voice.String(), `{"cast":["narrator"],"rate":1.5}`; got != want {
		t.Errorf("voice canonical: got %s, want %s", got, want)
	}
}
