package http

import (
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/backup"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
)

type BackupHandler interface {
	Run(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type backupHandlerImpl struct {
	backups backup.Service
}

func NewBackupHandler(backups backup.Service) BackupHandler {
	return &backupHandlerImpl{backups: backups}
}

func (h *backupHandlerImpl) Run(w http.ResponseWriter, r *http.Request) {
	info, err := h.backups.Run(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Backup stored", info)
}

func (h *backupHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.backups.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, infos)
}
