package kmeans

import "github.com/muesli/clusters"

// Centroid is a cluster's current center and the corpus indices assigned to it
// in the latest round.
type Centroid struct {
	Features    clusters.Coordinates
	Assignments []int
}

// Reset clears the assignments, keeping the backing array.
func (c *Centroid) Reset() {
	c.Assignments = c.Assignments[:0]
}

// Assign appends corpus index i.
func (c *Centroid) Assign(i int) {
	c.Assignments = append(c.Assignments, i)
}
