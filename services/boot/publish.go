// services/boot/publish.go
package boot

import (
	"audioboot-go/bus"
	"audioboot-go/errcode"
	"audioboot-go/services/fatal"
	"audioboot-go/types"
)

// ---------- Topics ----------

var (
	topicState = bus.T("boot", "state")
	topicBoard = bus.T("boot", "board")
	topicRole  = bus.T("boot", "role")
	topicStack = bus.T("diag", "stack")
)

// TopicState is the retained boot state.
func TopicState() bus.Topic { return topicState }

// TopicStep is the per-step progress topic; use "+" for all steps.
func TopicStep(name string) bus.Topic { return bus.T("boot", "step", name) }

// TopicBoard and TopicRole carry the resolved facts (retained).
func TopicBoard() bus.Topic { return topicBoard }
func TopicRole() bus.Topic  { return topicRole }
func TopicStack() bus.Topic { return topicStack }

func (s *Sequencer) publish(t bus.Topic, payload any, retained bool) {
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(t, payload, retained))
}

func (s *Sequencer) publishRetained(t bus.Topic, payload any) { s.publish(t, payload, true) }

func (s *Sequencer) publishState(level types.BootLevel, step, status string, err error) {
	st := types.BootState{
		Level:  level,
		Step:   step,
		Status: status,
		BootID: s.bootID,
		TS:     s.now().UnixNano(),
	}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	s.publish(topicState, st, true)
}

func (s *Sequencer) publishStep(id fatal.Step, phase types.StepPhase, err error) {
	ev := types.StepEvent{Index: id.Index, Name: id.Name, Phase: phase, TS: s.now().UnixNano()}
	if err != nil {
		ev.Error = string(errcode.Of(err))
	}
	s.publish(TopicStep(id.Name), ev, false)
}
