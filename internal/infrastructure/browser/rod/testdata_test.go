package rod

const (
	watchHTML = `<!DOCTYPE html>
<html>
<head><title>Video one</title></head>
<body>
	<div id="x">
		<button class="primary" aria-pressed="false">Like</button>
		<button class="secondary">Dislike</button>
	</div>
	<span style="display:none" id="hidden">hidden</span>
	<div id="editor" contenteditable="true"></div>
	<input id="plain" type="text" />
</body>
</html>`
)
