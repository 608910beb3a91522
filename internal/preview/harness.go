package preview

// SandboxRules is the iframe sandbox directive applied to the preview
// document. allow-same-origin is deliberately absent so the generated
// app can never touch the host origin's storage or DOM.
const SandboxRules = "allow-scripts allow-forms allow-modals allow-popups"

// consoleHarness is prepended to every non-empty artifact before it is
// handed to the preview. It mirrors console output and uncaught errors
// to the host as bridge events so they can be shown in the chat stream.
const consoleHarness = `<script>
(function () {
  function send(type, args) {
    var text = Array.prototype.map.call(args, function (a) {
      if (a instanceof Error) return a.message;
      if (typeof a === 'object') { try { return JSON.stringify(a); } catch (e) { return String(a); } }
      return String(a);
    }).join(' ');
    parent.postMessage({ type: type, message: text }, '*');
  }
  ['log', 'warn', 'error'].forEach(function (level) {
    var original = console[level];
    console[level] = function () {
      send(level, arguments);
      original.apply(console, arguments);
    };
  });
  window.addEventListener('error', function (e) {
    send('error', [e.message + ' (line ' + e.lineno + ')']);
  });
})();
</script>
`

// InjectHarness prepends the console harness to artifact source. Empty
// source stays empty so the placeholder preview is not treated as a
// running app.
func InjectHarness(code string) string {
	if code == "" {
		return ""
	}
	return consoleHarness + code
}
