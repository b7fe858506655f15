package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"
	"github.com/uc-cdis/bactmap/params"
)

const maxCommandBody = 1 << 20

// parameterView is a descriptor as served over the API.
// Required is filled from Descriptor.Required by copier.
type parameterView struct {
	Name         string      `json:"name"`
	Type         params.Type `json:"type"`
	Default      interface{} `json:"default,omitempty"`
	SectionTitle string      `json:"section_title,omitempty"`
	Description  string      `json:"description"`
	Required     bool        `json:"required"`
}

type sectionView struct {
	Title      string          `json:"title"`
	Parameters []parameterView `json:"parameters"`
}

type commandResponse struct {
	Flags []string `json:"flags"`
}

func toView(d params.Descriptor) (parameterView, error) {
	var view parameterView
	if err := copier.Copy(&view, &d); err != nil {
		return view, err
	}
	return view, nil
}

func toViews(descriptors []params.Descriptor) ([]parameterView, error) {
	views := make([]parameterView, 0, len(descriptors))
	for _, d := range descriptors {
		view, err := toView(d)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// handleParameters serves every descriptor in declaration order
func (server *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	views, err := toViews(server.registry.All())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (server *Server) handleParameter(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	d, err := server.registry.Get(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	view, err := toView(d)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (server *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	sections := server.registry.Sections()
	out := make([]sectionView, 0, len(sections))
	for _, s := range sections {
		descriptors := make([]params.Descriptor, 0, len(s.Parameters))
		for _, name := range s.Parameters {
			d, err := server.registry.Get(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			descriptors = append(descriptors, d)
		}
		views, err := toViews(descriptors)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out = append(out, sectionView{Title: s.Title, Parameters: views})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCommand validates a {name: value} body and returns the runner flags it produces
func (server *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		http.Error(w, "failed to read in parameter values", http.StatusBadRequest)
		return
	}
	values, err := params.DecodeValues(body, "json")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conf, err := server.registry.Bind(values)
	if err != nil {
		var unknown *params.UnknownParameterError
		if errors.As(err, &unknown) {
			logrus.Warnf("rejected undeclared parameter %s", unknown.Name)
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Flags: conf.Flags()})
}
