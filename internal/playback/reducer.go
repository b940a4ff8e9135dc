package playback

// Reduce applies action to state and returns the resulting state.
// It performs no I/O and never fails; unknown actions return state as is.
func Reduce(state AnimationState, action Action) AnimationState {
	switch a := action.(type) {
	case LoadPlay:
		next := state
		next.PlayID = a.Payload.PlayID
		next.PlayerStates = clonePlayerStates(a.Payload.PlayerStates)
		next.RouteTimings = a.Payload.RouteTimings
		next.TotalDuration = a.Payload.TotalDuration
		next.Phase = PhaseReady
		next.IsPlaying = false
		next.CurrentTime = 0
		return next

	case Play:
		next := state
		next.IsPlaying = true
		if state.CurrentTime >= state.TotalDuration {
			next.CurrentTime = 0
			next.Phase = PhaseExecution
			next.PlayerStates = RecomputePositions(state.PlayerStates, state.RouteTimings, 0)
			return next
		}
		if state.Phase == PhaseReady || state.Phase == PhaseSnapCount {
			next.Phase = PhaseExecution
		}
		return next

	case Pause:
		next := state
		next.IsPlaying = false
		return next

	case Stop:
		next := state
		next.IsPlaying = false
		next.CurrentTime = 0
		next.Phase = PhaseReady
		next.PlayerStates = RecomputePositions(state.PlayerStates, state.RouteTimings, 0)
		return next

	case Seek:
		next := state
		next.CurrentTime = a.Progress * state.TotalDuration
		next.PlayerStates = RecomputePositions(state.PlayerStates, state.RouteTimings, next.CurrentTime)
		return next

	case SetSpeed:
		next := state
		next.PlaybackSpeed = a.Speed
		return next

	case Tick:
		next := state
		next.CurrentTime = max(0, min(state.CurrentTime+a.DeltaTime, state.TotalDuration))
		if next.CurrentTime >= state.TotalDuration {
			next.Phase = PhaseComplete
			if !state.LoopMode {
				next.IsPlaying = false
			}
		}
		next.PlayerStates = RecomputePositions(state.PlayerStates, state.RouteTimings, next.CurrentTime)
		return next

	case Reset:
		next := state
		next.CurrentTime = 0
		next.Phase = PhaseReady
		next.PlayerStates = RecomputePositions(state.PlayerStates, state.RouteTimings, 0)
		return next

	case ToggleGhostTrail:
		next := state
		next.ShowGhostTrail = !state.ShowGhostTrail
		return next

	case ToggleLoop:
		next := state
		next.LoopMode = !state.LoopMode
		return next
	}
	return state
}
