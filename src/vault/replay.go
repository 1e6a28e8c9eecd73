package vault

import "fmt"

// Replay applies events in order on top of a copy of the genesis state
func Replay(genesis *State, events []*Event) (state *State, err error) {
	state = genesis.Clone()
	for _, event := range events {
		err = state.Apply(event)
		if err != nil {
			return nil, fmt.Errorf("failed to apply event %d (%s): %w", event.Seq, event.Kind, err)
		}
	}
	return
}
