package ui

import (
	"strings"

	"product-console/forms"
	"product-console/models"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formKind int

const (
	formAdd formKind = iota
	formEdit
)

// field order; featured is a checkbox after the text inputs
const (
	fieldName = iota
	fieldPrice
	fieldCompany
	fieldRating
	fieldFeatured
)

var fieldLabels = []string{"Name", "Price", "Company", "Rating"}

type formAction int

const (
	formNone formAction = iota
	formSubmit
	formCancel
)

// productForm is the add/edit overlay
type productForm struct {
	kind     formKind
	seed     models.Product
	inputs   []textinput.Model
	featured bool
	focus    int

	err     string
	loading bool
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 80
	ti.Width = 30
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newAddForm() *productForm {
	f := &productForm{kind: formAdd}
	for _, label := range fieldLabels {
		f.inputs = append(f.inputs, newInput(label))
	}
	f.setFocus(fieldName)
	return f
}

func newEditForm(p models.Product) *productForm {
	seeded := forms.NewUpdateForm(p)
	f := &productForm{kind: formEdit, seed: p, featured: seeded.Featured}
	for i, v := range []string{seeded.Name, seeded.Price, seeded.Company, seeded.Rating} {
		ti := newInput(fieldLabels[i])
		ti.SetValue(v)
		f.inputs = append(f.inputs, ti)
	}
	f.setFocus(fieldName)
	return f
}

func (f *productForm) setFocus(i int) {
	f.focus = i
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *productForm) value(i int) string {
	return f.inputs[i].Value()
}

func (f *productForm) addForm() forms.AddProductForm {
	return forms.AddProductForm{
		Name:     f.value(fieldName),
		Price:    f.value(fieldPrice),
		Company:  f.value(fieldCompany),
		Rating:   f.value(fieldRating),
		Featured: f.featured,
	}
}

func (f *productForm) updateForm() *forms.UpdateForm {
	u := forms.NewUpdateForm(f.seed)
	u.Name = f.value(fieldName)
	u.Price = f.value(fieldPrice)
	u.Company = f.value(fieldCompany)
	u.Rating = f.value(fieldRating)
	u.Featured = f.featured
	return u
}

func (f *productForm) update(msg tea.KeyMsg) (formAction, tea.Cmd) {
	if f.loading {
		return formNone, nil
	}

	switch msg.String() {
	case "esc":
		return formCancel, nil
	case "ctrl+s":
		return formSubmit, nil
	case "tab", "down":
		f.setFocus((f.focus + 1) % (fieldFeatured + 1))
		return formNone, nil
	case "shift+tab", "up":
		f.setFocus((f.focus + fieldFeatured) % (fieldFeatured + 1))
		return formNone, nil
	case "enter":
		if f.focus == fieldFeatured {
			return formSubmit, nil
		}
		f.setFocus(f.focus + 1)
		return formNone, nil
	case " ", "x":
		if f.focus == fieldFeatured {
			f.featured = !f.featured
			return formNone, nil
		}
	}

	if f.focus == fieldFeatured {
		return formNone, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return formNone, cmd
}

func (f *productForm) view(s Styles) string {
	var sb strings.Builder

	title := "Add Product"
	if f.kind == formEdit {
		title = "Edit " + f.seed.DisplayName()
	}
	sb.WriteString(s.Header.Render(" "+title+" ") + "\n\n")

	for i, label := range fieldLabels {
		style := s.Input
		if f.focus == i {
			style = s.Focused
		}
		sb.WriteString(s.Label.Render(label) + style.Render(f.inputs[i].View()) + "\n")
	}

	box := "[ ]"
	if f.featured {
		box = "[x]"
	}
	featured := box + " Featured"
	if f.focus == fieldFeatured {
		featured = s.Info.Bold(true).Render(featured)
	}
	sb.WriteString(s.Label.Render("") + featured + "\n\n")

	switch {
	case f.loading:
		sb.WriteString(s.Muted.Render("Saving...") + "\n")
	case f.err != "":
		sb.WriteString(s.Error.Render(f.err) + "\n")
	}
	sb.WriteString(s.Muted.Render("[Tab] Next  [Space] Toggle  [Enter] Save  [Esc] Cancel"))

	return s.Form.Render(sb.String())
}
