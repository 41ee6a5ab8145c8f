package api

import (
	"net/http"

	"freelancer/internal/domain"
	"freelancer/internal/services"
	"freelancer/internal/validation"
)

func (s *Server) startTimer(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req startTimerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	entry, err := s.services.Timer.Start(r.Context(), userID, req.ProjectID, req.TaskID, req.Description)
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, newTimeEntryResponse(entry))
	return nil
}

func (s *Server) stopTimer(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	entry, err := s.services.Timer.Stop(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newTimeEntryResponse(entry))
	return nil
}

func (s *Server) currentTimer(w http.ResponseWriter, r *http.Request, userID int64) error {
	entry, err := s.services.Timer.Current(r.Context(), userID)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newTimeEntryResponse(entry))
	return nil
}

func (s *Server) listTimeEntries(w http.ResponseWriter, r *http.Request, userID int64) error {
	q := newQueryParser(r.URL.Query())
	opts := domain.SearchOptions{
		ProjectID: q.int64("projectId"),
		From:      q.time("from"),
		To:        q.time("to"),
		Billable:  q.bool("billable"),
		Billed:    q.bool("billed"),
		InvoiceID: q.int64("invoiceId"),
		Running:   q.bool("running"),
	}
	if err := q.err(); err != nil {
		return err
	}

	entries, err := s.services.TimeEntries.List(r.Context(), userID, opts)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newTimeEntryResponses(entries))
	return nil
}

func (s *Server) createTimeEntry(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req timeEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	entry, err := s.services.TimeEntries.Create(r.Context(), userID, req.toInput())
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, newTimeEntryResponse(entry))
	return nil
}

func (s *Server) getTimeEntry(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	entry, err := s.services.TimeEntries.Get(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newTimeEntryResponse(entry))
	return nil
}

func (s *Server) updateTimeEntry(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req timeEntryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	entry, err := s.services.TimeEntries.Update(r.Context(), userID, id, req.toUpdate())
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newTimeEntryResponse(entry))
	return nil
}

func (s *Server) deleteTimeEntry(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.services.TimeEntries.Delete(r.Context(), userID, id); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request, userID int64) error {
	q := newQueryParser(r.URL.Query())
	search := domain.InvoiceSearch{ClientID: q.int64("clientId")}
	if raw := q.string("status"); raw != "" {
		status := domain.InvoiceStatus(raw)
		search.Status = &status
	}
	if err := q.err(); err != nil {
		return err
	}

	invoices, err := s.services.Invoices.List(r.Context(), userID, search)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newInvoiceResponses(invoices))
	return nil
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	invoice, err := s.services.Invoices.Create(r.Context(), userID, req.toInput())
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, newInvoiceResponse(invoice))
	return nil
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	invoice, err := s.services.Invoices.Get(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newInvoiceResponse(invoice))
	return nil
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req invoicePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	invoice, err := s.services.Invoices.Update(r.Context(), userID, id, req.toInput())
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newInvoiceResponse(invoice))
	return nil
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.services.Invoices.Delete(r.Context(), userID, id); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}

func (s *Server) sendInvoice(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	invoice, err := s.services.Invoices.Send(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newInvoiceResponse(invoice))
	return nil
}

func (s *Server) markInvoicePaid(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req markPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	invoice, err := s.services.Invoices.MarkPaid(r.Context(), userID, id, req.PaidDate)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newInvoiceResponse(invoice))
	return nil
}

func (s *Server) cancelInvoice(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	invoice, err := s.services.Invoices.Cancel(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newInvoiceResponse(invoice))
	return nil
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request, userID int64) error {
	clients, err := s.services.Clients.ListClients(r.Context(), userID)
	if err != nil {
		return err
	}
	result := make([]clientResponse, len(clients))
	for i, c := range clients {
		result[i] = newClientResponse(c)
	}
	writeData(w, http.StatusOK, result)
	return nil
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req clientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	client, err := s.services.Clients.CreateClient(r.Context(), userID, validation.ClientInput{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, newClientResponse(client))
	return nil
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	client, err := s.services.Clients.GetClient(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newClientResponse(client))
	return nil
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req clientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	client, err := s.services.Clients.UpdateClient(r.Context(), userID, id, validation.ClientInput{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newClientResponse(client))
	return nil
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.services.Clients.DeleteClient(r.Context(), userID, id); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request, userID int64) error {
	q := newQueryParser(r.URL.Query())
	clientID := q.int64("clientId")
	if err := q.err(); err != nil {
		return err
	}

	projects, err := s.services.Clients.ListProjects(r.Context(), userID, clientID)
	if err != nil {
		return err
	}
	result := make([]projectResponse, len(projects))
	for i, p := range projects {
		result[i] = newProjectResponse(p)
	}
	writeData(w, http.StatusOK, result)
	return nil
}

func (req projectRequest) toInput() validation.ProjectInput {
	return validation.ProjectInput{ClientID: req.ClientID, Name: req.Name, HourlyRate: req.HourlyRate.stringPtr()}
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	project, err := s.services.Clients.CreateProject(r.Context(), userID, req.toInput())
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, newProjectResponse(project))
	return nil
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	project, err := s.services.Clients.GetProject(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newProjectResponse(project))
	return nil
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	project, err := s.services.Clients.UpdateProject(r.Context(), userID, id, req.toInput())
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newProjectResponse(project))
	return nil
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.services.Clients.DeleteProject(r.Context(), userID, id); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, userID int64) error {
	projectID, err := pathID(r)
	if err != nil {
		return err
	}
	tasks, err := s.services.Clients.ListTasks(r.Context(), userID, projectID)
	if err != nil {
		return err
	}
	result := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = newTaskResponse(t)
	}
	writeData(w, http.StatusOK, result)
	return nil
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request, userID int64) error {
	projectID, err := pathID(r)
	if err != nil {
		return err
	}
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	task, err := s.services.Clients.CreateTask(r.Context(), userID, projectID, req.Name)
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, newTaskResponse(task))
	return nil
}

// summary reports logged time per project, either since a shorthand
// such as "1w" or between from and to.
func (s *Server) summary(w http.ResponseWriter, r *http.Request, userID int64) error {
	q := newQueryParser(r.URL.Query())
	since := q.string("since")
	opts := domain.SearchOptions{
		ProjectID: q.int64("projectId"),
		From:      q.time("from"),
		To:        q.time("to"),
	}
	if err := q.err(); err != nil {
		return err
	}

	var summary *services.WorkSummary
	var err error
	if since != "" {
		summary, err = s.services.Reporting.SummarizeSince(r.Context(), userID, since)
	} else {
		summary, err = s.services.Reporting.Summarize(r.Context(), userID, opts)
	}
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, newSummaryResponse(summary))
	return nil
}
