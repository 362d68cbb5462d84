package client

import (
	"bytes"
	"net/http"
	"slices"

	"resty.dev/v3"
)

// Field is a single text part of a multipart form
type Field struct {
	Name  string
	Value string
}

type file struct {
	field    string
	filename string
	data     []byte
}

// Form is an ordered multipart form body. Repeated names are allowed, as
// gallery uploads send one part per image under the same field.
type Form struct {
	fields []*resty.MultipartField
	files  []file
}

func NewForm() *Form {
	return &Form{}
}

func (f *Form) Add(name, value string) {
	f.fields = append(f.fields, &resty.MultipartField{Name: name, Values: []string{value}})
}

// Set replaces every value of name with a single value
func (f *Form) Set(name, value string) {
	f.Del(name)
	f.Add(name, value)
}

func (f *Form) Del(name string) {
	f.fields = slices.DeleteFunc(f.fields, func(mf *resty.MultipartField) bool { return mf.Name == name })
}

// Get returns the first value of name
func (f *Form) Get(name string) string {
	for _, mf := range f.fields {
		if mf.Name == name && len(mf.Values) > 0 {
			return mf.Values[0]
		}
	}
	return ""
}

func (f *Form) Has(name string) bool {
	return slices.ContainsFunc(f.fields, func(mf *resty.MultipartField) bool { return mf.Name == name })
}

func (f *Form) Fields() []Field {
	out := make([]Field, 0, len(f.fields))
	for _, mf := range f.fields {
		for _, v := range mf.Values {
			out = append(out, Field{Name: mf.Name, Value: v})
		}
	}
	return out
}

func (f *Form) AddFile(field, filename string, data []byte) {
	f.files = append(f.files, file{field: field, filename: filename, data: data})
}

func (f *Form) HasFiles() bool {
	return len(f.files) > 0
}

func (f *Form) Clone() *Form {
	fields := make([]*resty.MultipartField, 0, len(f.fields))
	for _, mf := range f.fields {
		fields = append(fields, &resty.MultipartField{Name: mf.Name, Values: slices.Clone(mf.Values)})
	}
	return &Form{fields: fields, files: slices.Clone(f.files)}
}

// multipartFields returns the parts for one request. File readers are
// created fresh each time since a form may be sent more than once.
func (f *Form) multipartFields() []*resty.MultipartField {
	parts := make([]*resty.MultipartField, 0, len(f.fields)+len(f.files))
	for _, mf := range f.fields {
		parts = append(parts, &resty.MultipartField{Name: mf.Name, Values: slices.Clone(mf.Values)})
	}
	for _, fi := range f.files {
		parts = append(parts, &resty.MultipartField{
			Name:        fi.field,
			FileName:    fi.filename,
			ContentType: http.DetectContentType(fi.data),
			Reader:      bytes.NewReader(fi.data),
		})
	}
	return parts
}
