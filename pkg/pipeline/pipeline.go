// Package pipeline composes the default per-item command template for a
// classification batch.
//
// The pipeline concatenates a sample's paired reads, aligns them against
// the reference index, classifies the alignment per rank, optionally
// classifies per gene, and compresses the alignment for archival. The
// individual tools are external collaborators; this package only arranges
// their invocations around the {infile}/{outfile} placeholders.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/taxongrid/arraygen/pkg/refdb"
)

// DefaultRanks are the standard output partition keys, in merge order.
// "free" and "none" are aggregate partitions, not taxonomic ranks.
var DefaultRanks = []string{"phylum", "genus", "species", "free", "none"}

// CommandTemplate builds the per-item command pipeline for a database.
//
// Reads are concatenated before alignment because the classifier expects
// R1 and R2 combined even though it ignores pairing; cat is safe on
// gzip'd data. The per-gene step is included only when the database ships
// gene coordinates.
func CommandTemplate(db refdb.Database, threads int, ranks []string) string {
	if len(ranks) == 0 {
		ranks = DefaultRanks
	}

	concat := "cat {infile}*.fastq.gz > {outfile}.fastq.gz"

	// Alignment settings follow the classifier's recommended profile for
	// short-read taxonomic assignment.
	align := fmt.Sprintf("bowtie2 -p %d -x %s ", threads, db.IndexPrefix) +
		"-q {outfile}.fastq.gz -S {outfile}.sam --seed 42 " +
		`--very-sensitive -k 16 --np 1 --mp "1,1" ` +
		`--rdg "0,1" --rfg "0,1" --score-min ` +
		`"L,0,-0.05" --no-head --no-unal`

	classify := "woltka classify -i {outfile}.sam " +
		"-o {outfile}.woltka-taxa " +
		"--no-demux " +
		fmt.Sprintf("--lineage %s ", db.Taxonomy) +
		fmt.Sprintf("--rank %s", strings.Join(ranks, ","))

	compress := fmt.Sprintf("xz -9 -T%d -c ", threads) + "{outfile}.sam > {outfile}.xz"

	steps := []string{concat, align, classify}
	if db.HasGeneCoordinates() {
		perGene := "woltka classify -i {outfile}.sam " +
			fmt.Sprintf("-c %s ", db.GeneCoordinates) +
			"-o {outfile}.woltka-per-gene " +
			"--no-demux"
		steps = append(steps, perGene)
	}
	steps = append(steps, compress)

	return strings.Join(steps, "; ")
}
