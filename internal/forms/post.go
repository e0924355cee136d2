package forms

import "net/http"

type PostForm struct {
	Title string `form:"title" validate:"required,max=140"`
	Body  string `form:"body" validate:"required,min=1,max=1000"`
}

func PostFromRequest(r *http.Request) PostForm {
	return PostForm{
		Title: field(r, "title"),
		Body:  field(r, "body"),
	}
}

func (f PostForm) Validate() Errors {
	return check(f)
}
