// Package stage is the catalog of pipeline stages.
//
// A [Stage] is a value: a name, the progress status reported while it runs,
// and the [proc.Command] that realizes it. A [Library] builds stages from a
// [Tools] description of where each external tool lives. Stages carry no
// state and are built fresh for every plan.
//
// The command flags are fixed contracts with the external tools and are
// reproduced verbatim. For example, a layout stage for sfdp runs:
//
//	sfdp -Goverlap=prism -Goutputorder=edgesfirst -Gsize=60,60!
package stage
