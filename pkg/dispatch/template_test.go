package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		infile   string
		outfile  string
		want     string
		wantErr  bool
	}{
		{
			name:     "both placeholders substituted",
			template: "align -q {infile} -S {outfile}.sam",
			infile:   "$infile0",
			outfile:  "$outfile0",
			want:     "align -q $infile0 -S $outfile0.sam",
		},
		{
			name:     "repeated placeholders",
			template: "cat {infile}*.fastq.gz > {outfile}.fastq.gz; align {outfile}.fastq.gz",
			infile:   "/seqs/S1",
			outfile:  "/out/S1",
			want:     "cat /seqs/S1*.fastq.gz > /out/S1.fastq.gz; align /out/S1.fastq.gz",
		},
		{
			name:     "foreign braces pass through",
			template: "run {infile} {outfile} | awk '{ print $1 }'",
			infile:   "in",
			outfile:  "out",
			want:     "run in out | awk '{ print $1 }'",
		},
		{
			name:     "missing infile placeholder",
			template: "classify -o {outfile}",
			wantErr:  true,
		},
		{
			name:     "missing outfile placeholder",
			template: "classify -i {infile}",
			wantErr:  true,
		},
		{
			name:     "empty template",
			template: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := CompileTemplate(tt.template)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Apply(tt.infile, tt.outfile))
			assert.Equal(t, tt.template, tmpl.String())
		})
	}
}
