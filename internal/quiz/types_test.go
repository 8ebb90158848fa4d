package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadValidate(t *testing.T) {
	valid := testPayload("What is 2+2?")

	tests := []struct {
		name    string
		mutate  func(p *Payload)
		wantErr string
	}{
		{name: "valid", mutate: func(p *Payload) {}},
		{name: "empty question", mutate: func(p *Payload) { p.Question = "" }, wantErr: "question text is empty"},
		{name: "too few options", mutate: func(p *Payload) { p.Options = p.Options[:3] }, wantErr: "expected 4 options"},
		{name: "too many options", mutate: func(p *Payload) { p.Options = append(p.Options, "E") }, wantErr: "expected 4 options"},
		{name: "blank option", mutate: func(p *Payload) { p.Options[1] = "" }, wantErr: "option 2 is empty"},
		{name: "missing explanation", mutate: func(p *Payload) { p.Explanation = "" }, wantErr: "explanation is empty"},
		{name: "answer not an option", mutate: func(p *Payload) { p.Answer = "Z" }, wantErr: "not among the options"},
		{name: "empty answer", mutate: func(p *Payload) { p.Answer = "" }, wantErr: "not among the options"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			p.Options = append([]string(nil), valid.Options...)
			tc.mutate(&p)

			err := p.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}
