package dom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handler struct{ name string }

func listen(d *Document, target NodeID, typ string, capture bool, h *handler) {
	d.Events.Add(target, &Listener{Type: typ, Capture: capture, Handler: h, Callback: h.name})
}

func recordInvoker(log *[]string) Invoker {
	return func(l *Listener, ev *Event) error {
		*log = append(*log, fmt.Sprintf("%s@%d", l.Callback, ev.Phase))
		return nil
	}
}

func TestDispatchPhases(t *testing.T) {
	d := mustParse(t, `<div id="outer"><button id="btn"></button></div>`)
	outer, btn := d.GetElementByID("outer"), d.GetElementByID("btn")

	listen(d, WindowID, "click", true, &handler{"window-capture"})
	listen(d, outer, "click", false, &handler{"outer-bubble"})
	listen(d, outer, "click", true, &handler{"outer-capture"})
	listen(d, btn, "click", false, &handler{"btn"})
	listen(d, d.Root(), "click", false, &handler{"doc-bubble"})

	var log []string
	ev := NewEvent("click", true, true)
	require.NoError(t, d.Dispatch(btn, ev, recordInvoker(&log)))
	assert.Equal(t, []string{
		"window-capture@1", "outer-capture@1", "btn@2", "outer-bubble@3", "doc-bubble@3",
	}, log)
	assert.Equal(t, PhaseNone, ev.Phase)
}

func TestNonBubblingEventSkipsBubblePhase(t *testing.T) {
	d := mustParse(t, `<div id="outer"><input id="in"></div>`)
	outer, in := d.GetElementByID("outer"), d.GetElementByID("in")
	listen(d, outer, "focus", false, &handler{"outer"})
	listen(d, in, "focus", false, &handler{"in"})

	var log []string
	require.NoError(t, d.Dispatch(in, NewEvent("focus", false, false), recordInvoker(&log)))
	assert.Equal(t, []string{"in@2"}, log)
}

func TestStopPropagation(t *testing.T) {
	d := mustParse(t, `<div id="outer"><button id="btn"></button></div>`)
	outer, btn := d.GetElementByID("outer"), d.GetElementByID("btn")
	listen(d, outer, "click", false, &handler{"outer"})
	listen(d, btn, "click", false, &handler{"first"})
	listen(d, btn, "click", false, &handler{"second"})

	var log []string
	err := d.Dispatch(btn, NewEvent("click", true, true), func(l *Listener, ev *Event) error {
		log = append(log, l.Callback.(string))
		if l.Callback == "first" {
			ev.StopPropagation()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, log)

	log = nil
	ev := NewEvent("click", true, true)
	err = d.Dispatch(btn, ev, func(l *Listener, ev *Event) error {
		log = append(log, l.Callback.(string))
		ev.StopImmediatePropagation()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, log)
	assert.True(t, ev.State.ImmediatePropagationStopped)
}

func TestRegistryDeduplicatesAndRemoves(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("div")
	h := &handler{"h"}
	assert.True(t, d.Events.Add(el, &Listener{Type: "x", Handler: h}))
	assert.False(t, d.Events.Add(el, &Listener{Type: "x", Handler: h}))
	assert.True(t, d.Events.Add(el, &Listener{Type: "x", Capture: true, Handler: h}))

	assert.False(t, d.Events.Remove(el, "x", false, &handler{"h"}))
	assert.True(t, d.Events.Remove(el, "x", false, h))
	assert.Equal(t, 1, d.Events.Count(el))
}

func TestOnceListenerRunsOnce(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("div")
	d.Events.Add(el, &Listener{Type: "ping", Once: true, Handler: &handler{"once"}, Callback: "once"})

	var log []string
	for i := 0; i < 2; i++ {
		require.NoError(t, d.Dispatch(el, NewEvent("ping", false, false), recordInvoker(&log)))
	}
	assert.Equal(t, []string{"once@2"}, log)
}

func TestPreventDefaultRequiresCancelable(t *testing.T) {
	ev := NewEvent("x", false, false)
	ev.PreventDefault()
	assert.False(t, ev.State.DefaultPrevented)

	ev = NewEvent("x", false, true)
	ev.PreventDefault()
	assert.True(t, ev.State.DefaultPrevented)
}

func TestListenerErrorStopsDispatch(t *testing.T) {
	d := mustParse(t, `<div id="outer"><button id="btn"></button></div>`)
	outer, btn := d.GetElementByID("outer"), d.GetElementByID("btn")
	listen(d, outer, "click", false, &handler{"outer"})
	listen(d, btn, "click", false, &handler{"btn"})

	var log []string
	err := d.Dispatch(btn, NewEvent("click", true, false), func(l *Listener, ev *Event) error {
		log = append(log, l.Callback.(string))
		return fmt.Errorf("boom")
	})
	require.EqualError(t, err, "boom")
	assert.Equal(t, []string{"btn"}, log)
}
