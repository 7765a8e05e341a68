package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/dom"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

const testPage = `<html><head><title>t</title></head><body>
<div id="app" class="box wide" data-user-id="7">
  <p class="msg">hello</p>
  <ul><li>a</li><li>b</li><li>c</li></ul>
  <input id="agree" type="checkbox">
  <input id="name" value="initial">
  <button id="go" onclick="window.inlineRan = (window.inlineRan || 0) + 1">go</button>
  <a id="link" href="/x" onclick="return false">x</a>
</div>
</body></html>`

func domInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	doc, err := dom.ParseHTML(testPage)
	require.NoError(t, err)
	return New(Options{Document: doc})
}

// domEval runs source in its own block so cases sharing an interpreter
// can reuse lexical names.
func domEval(t *testing.T, interp *Interpreter, source string) string {
	t.Helper()
	v, err := interp.Eval("{\n" + source + "\n}")
	require.NoError(t, err, source)
	return v.ToString()
}

func TestDOMQueries(t *testing.T) {
	interp := domInterpreter(t)
	for _, tc := range []evalCase{
		{"by id", "document.getElementById('app').id", "app"},
		{"identity", "document.getElementById('app') === document.querySelector('#app')", "true"},
		{"tag name", "document.querySelector('p').tagName", "P"},
		{"text", "document.querySelector('.msg').textContent", "hello"},
		{"query all", "document.querySelectorAll('li').length", "3"},
		{"spread node list", "[...document.querySelectorAll('li')].map(li => li.textContent).join('')", "abc"},
		{"node list forEach", "let s = ''; document.querySelectorAll('li').forEach((li, i) => s += i); s", "012"},
		{"children", "document.querySelector('ul').children.length", "3"},
		{"parent", "document.querySelector('li').parentElement.tagName", "UL"},
		{"siblings", "document.querySelector('li').nextElementSibling.textContent", "b"},
		{"closest", "document.querySelector('li').closest('div').id", "app"},
		{"matches", "document.querySelector('#app').matches('div.box.wide')", "true"},
		{"body", "document.body.tagName", "BODY"},
		{"missing is null", "document.getElementById('nope')", "null"},
		{"by class name", "document.getElementsByClassName('box wide').length", "1"},
	} {
		assert.Equal(t, tc.want, domEval(t, interp, tc.source), tc.name)
	}

	_, err := interp.Eval("document.querySelector('[[')")
	require.Error(t, err)
	assert.Equal(t, runtime.KindSyntaxError, runtime.ErrorKindOf(err))
}

func TestDOMMutation(t *testing.T) {
	interp := domInterpreter(t)
	for _, tc := range []evalCase{
		{"append", "const li = document.createElement('li'); li.textContent = 'd'; document.querySelector('ul').appendChild(li); document.querySelectorAll('li').length", "4"},
		{"insert before", "const ul = document.querySelector('ul'); const z = document.createElement('li'); z.textContent = 'z'; ul.insertBefore(z, ul.firstElementChild); ul.firstElementChild.textContent", "z"},
		{"remove", "document.querySelector('li').remove(); document.querySelector('li').textContent", "a"},
		{"append strings", "const p = document.querySelector('.msg'); p.append(' world', '!'); p.textContent", "hello world!"},
		{"prepend and before", "const p = document.querySelector('.msg'); p.before(document.createElement('hr')); p.previousElementSibling.tagName", "HR"},
		{"inner html", "const ul = document.querySelector('ul'); ul.innerHTML = '<li>x</li><li>y</li>'; ul.children.length + ':' + ul.innerHTML", "2:<li>x</li><li>y</li>"},
		{"outer html", "document.querySelector('.msg').outerHTML", `<p class="msg">hello world!</p>`},
		{"replace child", "const ul = document.querySelector('ul'); const n = document.createElement('li'); n.textContent = 'n'; const old = ul.replaceChild(n, ul.firstElementChild); old.textContent + '>' + ul.firstElementChild.textContent", "x>n"},
		{"clone", "const c = document.querySelector('ul').cloneNode(true); c.children.length + ':' + c.isConnected", "2:false"},
		{"attributes", "const a = document.querySelector('#link'); a.setAttribute('Data-X', '1'); [a.getAttribute('data-x'), a.hasAttribute('href'), a.getAttribute('missing')].join()", "1,true,"},
		{"remove attribute", "const a = document.querySelector('#link'); a.removeAttribute('href'); a.hasAttribute('href')", "false"},
	} {
		assert.Equal(t, tc.want, domEval(t, interp, tc.source), tc.name)
	}

	_, err := interp.Eval("const ul = document.querySelector('ul'); ul.appendChild(document.body)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HierarchyRequestError")

	_, err = interp.Eval("document.body.appendChild('text')")
	require.Error(t, err)
	assert.Equal(t, runtime.KindTypeError, runtime.ErrorKindOf(err))
}

func TestDOMReadOnlyProperties(t *testing.T) {
	interp := domInterpreter(t)
	for _, prop := range []string{"tagName", "parentNode", "children", "classList", "nodeType"} {
		_, err := interp.Eval("document.body." + prop + " = 1")
		require.Error(t, err, prop)
		assert.Equal(t, runtime.KindTypeError, runtime.ErrorKindOf(err))
		assert.Contains(t, err.Error(), prop+" is read-only")
	}
	_, err := interp.Eval("document.activeElement = null")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activeElement is read-only")
}

func TestDOMClassStyleDataset(t *testing.T) {
	interp := domInterpreter(t)
	for _, tc := range []evalCase{
		{"class list", "const app = document.getElementById('app'); app.classList.add('new'); app.classList.remove('wide'); app.className", "box new"},
		{"toggle", "const app = document.getElementById('app'); [app.classList.toggle('box'), app.classList.toggle('box'), app.classList.contains('box')].join()", "false,true,true"},
		{"toggle force", "const app = document.getElementById('app'); app.classList.toggle('on', false)", "false"},
		{"class list length", "document.getElementById('app').classList.length", "2"},
		{"class list identity", "const app = document.getElementById('app'); app.classList === app.classList", "true"},
		{"style camel case", "const app = document.getElementById('app'); app.style.backgroundColor = 'red'; app.getAttribute('style')", "background-color: red;"},
		{"style read", "document.getElementById('app').style.backgroundColor", "red"},
		{"style set property", "const s = document.getElementById('app').style; s.setProperty('margin-top', '4px'); s.marginTop", "4px"},
		{"style remove", "const s = document.getElementById('app').style; s.removeProperty('margin-top'); s.marginTop", ""},
		{"dataset read", "document.getElementById('app').dataset.userId", "7"},
		{"dataset write", "const app = document.getElementById('app'); app.dataset.fooBar = 'x'; app.getAttribute('data-foo-bar')", "x"},
		{"dataset keys", "Object.keys(document.getElementById('app').dataset).join()", "userId,fooBar"},
	} {
		assert.Equal(t, tc.want, domEval(t, interp, tc.source), tc.name)
	}

	_, err := interp.Eval("document.body.classList.add('')")
	require.Error(t, err)
	assert.Equal(t, runtime.KindSyntaxError, runtime.ErrorKindOf(err))
}

func TestDOMFormState(t *testing.T) {
	interp := domInterpreter(t)
	for _, tc := range []evalCase{
		{"value default", "document.getElementById('name').value", "initial"},
		{"value set", "const n = document.getElementById('name'); n.value = 'typed'; [n.value, n.getAttribute('value')].join()", "typed,initial"},
		{"checked", "const c = document.getElementById('agree'); const before = c.checked; c.checked = true; [before, c.checked].join()", "false,true"},
		{"focus", "document.getElementById('name').focus(); document.activeElement.id", "name"},
		{"blur", "document.getElementById('name').blur(); document.activeElement === document.body", "true"},
	} {
		assert.Equal(t, tc.want, domEval(t, interp, tc.source), tc.name)
	}
}

func TestDOMEventPhases(t *testing.T) {
	interp := domInterpreter(t)
	got := domEval(t, interp, `
const log = [];
const app = document.getElementById('app');
const btn = document.getElementById('go');
window.addEventListener('click', () => log.push('window capture'), true);
document.addEventListener('click', () => log.push('document bubble'));
app.addEventListener('click', e => log.push('app capture ' + e.eventPhase), {capture: true});
app.addEventListener('click', e => log.push('app bubble ' + e.eventPhase));
btn.addEventListener('click', e => log.push('target ' + e.eventPhase + ' ' + (e.target === btn) + ' ' + (e.currentTarget === btn)));
btn.click();
log.join('|')`)
	assert.Equal(t, "window capture|app capture 1|target 2 true true|app bubble 3|document bubble", got)
	assert.Equal(t, "1", domEval(t, interp, "window.inlineRan"), "inline attribute handler runs once per dispatch")
}

func TestDOMEventControl(t *testing.T) {
	interp := domInterpreter(t)
	for _, tc := range []evalCase{
		{"stop propagation", `
var outer = 0;
const app = document.getElementById('app');
const p = app.querySelector('p');
app.addEventListener('ping', () => outer++);
p.addEventListener('ping', e => e.stopPropagation());
p.dispatchEvent(new Event('ping', {bubbles: true}));
outer`, "0"},
		{"stop immediate", `
const calls = [];
const li = document.querySelector('li');
li.addEventListener('x', e => { calls.push(1); e.stopImmediatePropagation() });
li.addEventListener('x', () => calls.push(2));
li.dispatchEvent(new Event('x'));
calls.join()`, "1"},
		{"prevent default", `
const input = document.querySelector('#name');
input.addEventListener('submit', e => e.preventDefault());
[input.dispatchEvent(new Event('submit', {cancelable: true})), input.dispatchEvent(new Event('submit'))].join()`, "false,true"},
		{"once", `
var n = 0;
const b = document.body;
b.addEventListener('tick', () => n++, {once: true});
b.dispatchEvent(new Event('tick'));
b.dispatchEvent(new Event('tick'));
n`, "1"},
		{"dedupe and remove", `
var n = 0;
const h = () => n++;
const b = document.body;
b.addEventListener('dup', h);
b.addEventListener('dup', h);
b.dispatchEvent(new Event('dup'));
b.removeEventListener('dup', h);
b.dispatchEvent(new Event('dup'));
n`, "1"},
		{"custom event detail", `
var got;
document.body.addEventListener('hello', e => { got = e.detail.who });
document.body.dispatchEvent(new CustomEvent('hello', {detail: {who: 'me'}}));
got`, "me"},
		{"handleEvent object", `
const listener = { count: 0, handleEvent(e) { this.count++ } };
document.body.addEventListener('obj', listener);
document.body.dispatchEvent(new Event('obj'));
listener.count`, "1"},
		{"property handler", `
let hits = 0;
const b = document.querySelector('ul');
b.onclick = () => { hits++ };
b.click();
b.onclick = null;
b.click();
hits`, "1"},
		{"inline return false", `
const a = document.getElementById('link');
const ev = new Event('click', {cancelable: true});
a.dispatchEvent(ev);
ev.defaultPrevented`, "true"},
	} {
		assert.Equal(t, tc.want, domEval(t, interp, tc.source), tc.name)
	}
}

func TestDOMCheckboxClick(t *testing.T) {
	interp := domInterpreter(t)
	got := domEval(t, interp, `
const box = document.getElementById('agree');
const seen = [];
box.addEventListener('change', () => seen.push('change ' + box.checked));
box.click();
box.addEventListener('click', e => e.preventDefault());
box.click();
seen.push('final ' + box.checked);
seen.join('|')`)
	assert.Equal(t, "change true|final true", got)
}

func TestInlineHandlerSyntaxErrorIsCatchable(t *testing.T) {
	interp := domInterpreter(t)
	got := domEval(t, interp, `
const link = document.getElementById('link');
link.setAttribute('onclick', 'return (');
let caught;
try { link.click() } catch (e) { caught = e }
[caught instanceof SyntaxError, caught.name, typeof caught.message].join()`)
	assert.Equal(t, "true,SyntaxError,string", got)
}

func TestListenerEnvironmentSnapshot(t *testing.T) {
	interp := domInterpreter(t)
	got := domEval(t, interp, `
var liveGlobal = 'before';
const results = [];
function register() {
  let local = 'before';
  document.body.addEventListener('snap', () => results.push(local + '/' + liveGlobal));
  local = 'after';
}
register();
liveGlobal = 'after';
document.body.dispatchEvent(new Event('snap'));
results.join()`)
	assert.Equal(t, "before/after", got)
}

func TestHostDispatch(t *testing.T) {
	interp := domInterpreter(t)
	domEval(t, interp, "var hostHits = 0; document.body.addEventListener('host', e => { hostHits++; e.preventDefault() })")

	ev := dom.NewEvent("host", true, true)
	require.NoError(t, interp.DispatchEvent(interp.Document().Body(), ev))
	assert.True(t, ev.State.DefaultPrevented)
	assert.Equal(t, "1", domEval(t, interp, "hostHits"))

	btn := interp.Document().GetElementByID("go")
	require.NoError(t, interp.Click(btn))
	require.NoError(t, interp.Click(btn))
	assert.Equal(t, "2", domEval(t, interp, "window.inlineRan"))
	assert.Equal(t, "BUTTON", interp.NodeValue(btn).Object.Get("tagName").ToString())
}
