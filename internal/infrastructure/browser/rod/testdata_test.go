package rod

const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1 id="heading">Hello World</h1>
	<script>var hidden = 1;</script>
</body>
</html>`

	FormHTML = `<!DOCTYPE html>
<html>
<body>
	<form id="testForm">
		<input id="username" type="text" name="username" />
		<textarea id="comment"></textarea>
	</form>
</body>
</html>`

	InteractiveHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="btn">Click Me</button>
	<div id="result"></div>
	<p>It's here</p>
	<script>
		document.getElementById('btn').addEventListener('click', function() {
			document.getElementById('result').textContent = 'Clicked!';
		});
	</script>
</body>
</html>`

	LinkHTML = `<!DOCTYPE html>
<html>
<body>
	<a id="next" href="/next">Next</a>
</body>
</html>`

	NextHTML = `<!DOCTYPE html>
<html>
<head><title>Next Page</title></head>
<body><h1 id="arrived">Arrived</h1></body>
</html>`
)
