package task

// Status records the progress of a pipeline run. Every in-progress value
// names the stage about to execute; StatusCompleted and StatusError are
// terminal.
type Status string

// Task statuses.
const (
	StatusCreated         Status = "created"
	StatusQueued          Status = "queued"
	StatusLayout          Status = "running layout"
	StatusClustering      Status = "running clustering"
	StatusContiguity      Status = "making map contiguous"
	StatusMapConstruction Status = "map construction"
	StatusColorAssignment Status = "assigning colors"
	StatusBubbleSets      Status = "creating bubble sets"
	StatusLineSets        Status = "creating line sets"
	StatusMapSets         Status = "creating map sets"
	StatusMapSetsPost     Status = "post-processing map sets"
	StatusPointCloud      Status = "creating point cloud"
	StatusRendering       Status = "rendering"
	StatusSemanticZoom    Status = "semantic zoom construction"
	StatusCompleted       Status = "completed"
	StatusError           Status = "error"
)

// Terminal reports whether no further transitions happen in the current run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

func (s Status) String() string { return string(s) }
