// Package hclseq is the concrete graph.SequenceSource: an HCL block schema
// for start/stop/function/variable/parallel_split/parallel_sync nodes plus
// transition blocks, parsed with hashicorp/hcl/v2's gohcl decoder exactly
// as the teacher's hcl_adapter.Loader decodes its own block types. A
// directory of files is discovered the way the teacher's fsutil walks a
// tree, then parsed concurrently with golang.org/x/sync/errgroup.
package hclseq
