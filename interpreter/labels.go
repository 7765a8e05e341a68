package interpreter

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// labelFrame is the set of labels one loop answers to.
type labelFrame struct {
	labels *hashset.Set
}

// pushLoopFrame opens a frame for a loop, claiming the labels that a
// surrounding labelled statement handed over.
func (interp *Interpreter) pushLoopFrame() *labelFrame {
	frame := &labelFrame{labels: hashset.New()}
	for _, l := range interp.cur.labels {
		frame.labels.Add(l)
	}
	interp.cur.labels = nil
	interp.cur.loops = append(interp.cur.loops, frame)
	return frame
}

func (interp *Interpreter) popLoopFrame() {
	interp.cur.loops = interp.cur.loops[:len(interp.cur.loops)-1]
}

func (f *labelFrame) claims(flow ExecFlow) bool {
	return flow.Label == "" || f.labels.Contains(flow.Label)
}

// settle interprets a loop body's completion. exit reports whether the
// loop ends; out is the flow to propagate when it does.
func (f *labelFrame) settle(flow ExecFlow) (exit bool, out ExecFlow) {
	switch flow.Kind {
	case FlowBreak:
		if f.claims(flow) {
			return true, normalFlow
		}
		return true, flow
	case FlowContinue:
		if f.claims(flow) {
			return false, normalFlow
		}
		return true, flow
	case FlowReturn:
		return true, flow
	}
	return false, normalFlow
}

// labelChain unwraps nested labels, returning them with the innermost body.
func labelChain(s *ast.LabeledStatement) ([]string, ast.Statement) {
	labels := []string{s.Label.Value}
	body := s.Body
	for {
		inner, ok := body.(*ast.LabeledStatement)
		if !ok {
			return labels, body
		}
		labels = append(labels, inner.Label.Value)
		body = inner.Body
	}
}

func isIterationStatement(s ast.Statement) bool {
	switch s.(type) {
	case *ast.WhileStatement, *ast.DoWhileStatement, *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement:
		return true
	}
	return false
}

func (interp *Interpreter) execLabeled(s *ast.LabeledStatement, env *runtime.Environment) (ExecFlow, error) {
	labels, body := labelChain(s)
	if isIterationStatement(body) {
		interp.cur.labels = labels
		return interp.execStatement(body, env)
	}
	flow, err := interp.execStatement(body, env)
	if err != nil || flow.Label == "" {
		return flow, err
	}
	for _, l := range labels {
		if l != flow.Label {
			continue
		}
		if flow.Kind == FlowContinue {
			return flow, runtime.NewSyntaxError("Illegal continue statement: '%s' does not denote an iteration statement", l)
		}
		return normalFlow, nil
	}
	return flow, nil
}
