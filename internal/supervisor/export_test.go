package supervisor

// ReleaseProcessSlot frees the process-wide construction guard so tests
// can build supervisors independently.
var ReleaseProcessSlot = releaseProcessSlot
