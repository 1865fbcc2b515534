package schemas_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

func TestKinds(t *testing.T) {
	t.Parallel()
	assert.Len(t, schemas.Kinds, 6)
	for _, k := range schemas.Kinds {
		assert.True(t, k.Valid(), "%s should be valid", k)
	}
	assert.False(t, schemas.Kind("networkError").Valid())
}

func TestNewMessage_KindFollowsDescriptor(t *testing.T) {
	t.Parallel()
	cases := map[schemas.Kind]schemas.Descriptor{
		schemas.KindUncaughtError: schemas.UncaughtDescriptor{},
		schemas.KindResourceError: schemas.ResourceDescriptor{},
		schemas.KindGrammarError:  schemas.GrammarDescriptor("x"),
		schemas.KindPromiseError:  schemas.PromiseDescriptor{},
		schemas.KindCaughtError:   schemas.CaughtDescriptor{},
		schemas.KindReportError:   schemas.ReportDescriptor{},
	}
	for kind, desc := range cases {
		assert.Equal(t, kind, schemas.NewMessage(desc).Kind)
	}
	assert.True(t, schemas.NewMessage(nil).IsZero())
}

func TestMessage_MarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  schemas.Message
		want string
	}{
		{
			name: "resource",
			msg: schemas.NewMessage(schemas.ResourceDescriptor{
				OuterHTML: `<img src="a.png">`,
				Src:       "a.png",
				TagName:   "IMG",
				Selector:  "img:nth-child(0)",
				TimeStamp: 123,
			}),
			want: `{"type":"resourceError","desc":{"outerHTML":"<img src=\"a.png\">","src":"a.png","tagName":"IMG","selector":"img:nth-child(0)","timeStamp":123}}`,
		},
		{
			name: "grammar is a bare string",
			msg:  schemas.NewMessage(schemas.GrammarDescriptor("SyntaxError")),
			want: `{"type":"grammarError","desc":"SyntaxError"}`,
		},
		{
			name: "report carries the payload as-is",
			msg:  schemas.NewMessage(schemas.ReportDescriptor{Payload: map[string]int{"a": 1}}),
			want: `{"type":"reportError","desc":{"a":1}}`,
		},
		{
			name: "caught",
			msg: schemas.NewMessage(schemas.CaughtDescriptor{
				Method: "save",
				Params: []interface{}{1, "x"},
				Error:  "at save",
			}),
			want: `{"type":"caughtError","desc":{"method":"save","params":[1,"x"],"error":"at save"}}`,
		},
		{
			name: "promise with undefined reason",
			msg:  schemas.NewMessage(schemas.PromiseDescriptor{}),
			want: `{"type":"promiseError","desc":{"message":null,"error":null}}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}

	t.Run("empty message", func(t *testing.T) {
		_, err := json.Marshal(schemas.Message{})
		assert.Error(t, err)
	})
}

func TestJSError(t *testing.T) {
	t.Parallel()
	err := &schemas.JSError{Name: "TypeError", Message: "x is undefined", Stack: "at f"}
	assert.Equal(t, "TypeError: x is undefined", err.Error())
	assert.Equal(t, "x is undefined", err.ErrorMessage())
	assert.Equal(t, "at f", err.StackTrace())
	assert.Equal(t, "bare", (&schemas.JSError{Message: "bare"}).Error())
}

// TestDescriptorJSONTags pins the wire names shared with the browser hook.
func TestDescriptorJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			structRef: schemas.UncaughtDescriptor{},
			expectedTags: map[string]string{
				"Message": "message", "Filename": "filename", "Row": "row", "Col": "col", "Error": "error",
			},
		},
		{
			structRef: schemas.ResourceDescriptor{},
			expectedTags: map[string]string{
				"OuterHTML": "outerHTML", "Src": "src,omitempty", "TagName": "tagName",
				"Selector": "selector", "TimeStamp": "timeStamp",
			},
		},
		{
			structRef:    schemas.InternalFailure{},
			expectedTags: map[string]string{"Message": "message", "Stack": "stack,omitempty", "Source": "source"},
		},
	}

	for _, tc := range testCases {
		typ := reflect.TypeOf(tc.structRef)
		for field, want := range tc.expectedTags {
			f, ok := typ.FieldByName(field)
			require.True(t, ok, "%s.%s missing", typ.Name(), field)
			assert.Equal(t, want, f.Tag.Get("json"), "%s.%s", typ.Name(), field)
		}
	}
}
