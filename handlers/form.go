package handlers

import "html/template"

// formPage is the public guest post form. The honeypot input is moved off
// screen; people never fill it.
var formPage = template.Must(template.New("guest-post-form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Submit a Guest Post - {{.SiteName}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 2rem; }
.form-container { max-width: 42rem; margin: 0 auto; padding: 1.5rem; border-radius: .5rem; }
.light { background: #fff; color: #111827; }
.dark { background: #1f2937; color: #fff; }
.dark input, .dark textarea { background: #374151; color: #fff; border: 1px solid #4b5563; }
label { display: block; margin: 1rem 0 .5rem; font-weight: 600; }
input[type=text], input[type=email], textarea { width: 100%; padding: .6rem; border-radius: .5rem; border: 1px solid #d1d5db; }
button { margin-top: 1.5rem; padding: .6rem 1.2rem; border: 0; border-radius: .5rem; background: #2563eb; color: #fff; }
.hp { position: absolute; left: -9999px; }
</style>
</head>
<body>
<div class="form-container {{.Style}}">
  <h2>Submit a Guest Post</h2>
  <form id="guest-post-form" method="post" action="{{.Action}}" enctype="multipart/form-data">
    <input type="hidden" name="nonce" value="{{.Nonce}}">
    <div class="hp" aria-hidden="true">
      <input type="text" name="website_hp" tabindex="-1" autocomplete="off">
    </div>
    <label for="post_title">Post Title *</label>
    <input type="text" name="post_title" id="post_title" required>
    <label for="post_content">Post Content *</label>
    <textarea name="post_content" id="post_content" rows="10" required></textarea>
    <label for="author_name">Your Name *</label>
    <input type="text" name="author_name" id="author_name" required>
    <label for="author_email">Your Email *</label>
    <input type="email" name="author_email" id="author_email" required>
    <label for="author_bio">Author Bio</label>
    <textarea name="author_bio" id="author_bio" rows="4"></textarea>
    <label for="featured_image">Featured Image</label>
    <input type="file" name="featured_image" id="featured_image" accept="image/jpeg,image/png,image/gif">
    <button type="submit">Submit Guest Post</button>
  </form>
</div>
</body>
</html>
`))

type formData struct {
	SiteName string
	Style    string
	Nonce    string
	Action   string
}
