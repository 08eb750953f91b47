package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"smartstock/app"
	"smartstock/imaging"
	"smartstock/lending"
	"smartstock/models"
	"smartstock/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReturnController struct{ *Srv }

func NewReturnController(s *Srv) *ReturnController { return &ReturnController{Srv: s} }

type returnItem struct {
	Code      string `json:"code"`
	Condition string `json:"condition"`
	Note      string `json:"note"`
}

func (it returnItem) entry() lending.ReturnEntry {
	cond := models.ReturnCondition(strings.ToUpper(strings.TrimSpace(it.Condition)))
	if cond == "" {
		cond = models.ConditionGood
	}
	return lending.ReturnEntry{
		Code:        strings.TrimSpace(it.Code),
		Condition:   cond,
		FailureNote: strings.TrimSpace(it.Note),
	}
}

// POST /api/returns
//
// JSON:      {"items":[{"code":"TOOL-1","condition":"GOOD"},{"code":"TOOL-2","condition":"DAMAGED","note":"cable cut"}]}
// multipart: codes[] / conditions[] / notes[]，第 i 项的证据照片放在 photo_<i>
func (rc *ReturnController) ProcessReturns(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		entries []lending.ReturnEntry
		rejects []string
		keys    []string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		codes := c.PostFormArray("codes[]")
		conds := c.PostFormArray("conditions[]")
		notes := c.PostFormArray("notes[]")
		for i, code := range codes {
			it := returnItem{Code: code, Condition: at(conds, i), Note: at(notes, i)}
			en := it.entry()

			fh, err := c.FormFile(fmt.Sprintf("photo_%d", i))
			if err != nil && !errors.Is(err, http.ErrMissingFile) {
				rejects = append(rejects, fmt.Sprintf("%s: invalid photo upload", en.Code))
				continue
			}
			if fh != nil {
				key, msg := rc.storeEvidence(ctx, fh)
				if msg != "" {
					rejects = append(rejects, fmt.Sprintf("%s: %s", en.Code, msg))
					continue
				}
				en.PhotoKey = key
				keys = append(keys, key)
			}
			entries = append(entries, en)
		}
	} else {
		var in struct {
			Items []returnItem `json:"items"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			rc.badRequest(c, err)
			return
		}
		for _, it := range in.Items {
			entries = append(entries, it.entry())
		}
	}

	// 所有条目都因照片被拒
	if len(entries) == 0 && len(rejects) > 0 {
		c.JSON(http.StatusOK, lending.ReturnsResult{Errors: rejects, Returned: []lending.ReturnedLine{}})
		return
	}

	res, err := rc.Lending.ProcessReturns(ctx, app.CurrentUserID(c), entries)
	if res != nil {
		rc.dropOrphanPhotos(ctx, keys, res.Returned)
	}
	if err != nil {
		rc.fail(c, err)
		return
	}
	res.Errors = append(append([]string{}, rejects...), res.Errors...)
	c.JSON(http.StatusOK, res)
}

// storeEvidence 压缩并上传照片；返回的 msg 非空表示该条目被拒
func (rc *ReturnController) storeEvidence(ctx context.Context, fh *multipart.FileHeader) (key, msg string) {
	if rc.Objects == nil {
		return "", "evidence photos are not enabled"
	}
	if fh.Size > imaging.MaxUploadBytes {
		return "", imaging.ErrTooLarge.Error()
	}
	f, err := fh.Open()
	if err != nil {
		return "", "invalid photo upload"
	}
	defer f.Close()

	photo, err := imaging.PrepareEvidence(f)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
			return "", err.Error()
		}
		rc.Log.Info("photo rejected", zap.String("file", fh.Filename), zap.Error(err))
		return "", "photo could not be read"
	}
	key = storage.EvidenceKey()
	if err := storage.PutBytes(ctx, rc.Objects, key, photo.Data, imaging.ContentType); err != nil {
		rc.Log.Error("upload evidence photo", zap.String("key", key), zap.Error(err))
		return "", "photo could not be stored"
	}
	return key, ""
}

// 归还失败的条目，其照片没有被任何借出行引用
func (rc *ReturnController) dropOrphanPhotos(ctx context.Context, keys []string, returned []lending.ReturnedLine) {
	if len(keys) == 0 {
		return
	}
	used := make(map[string]bool, len(returned))
	for _, r := range returned {
		if r.PhotoKey != "" {
			used[r.PhotoKey] = true
		}
	}
	for _, k := range keys {
		if used[k] {
			continue
		}
		if err := rc.Objects.Delete(ctx, k); err != nil {
			rc.Log.Warn("delete orphan photo", zap.String("key", k), zap.Error(err))
		}
	}
}

// GET /api/returns/lines/:id/photo
func (rc *ReturnController) EvidencePhoto(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		rc.fail(c, err)
		return
	}
	line, err := rc.Repo.FindLineByID(c.Request.Context(), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	if line.EvidencePhotoKey == "" || rc.Objects == nil {
		c.JSON(http.StatusNotFound, app.H{"error": "no evidence photo for this return"})
		return
	}
	url, err := rc.Objects.PresignGet(c.Request.Context(), line.EvidencePhotoKey, rc.Cfg.Minio.PresignTTL)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"url": url, "expiresIn": int(rc.Cfg.Minio.PresignTTL.Seconds())})
}

func at(xs []string, i int) string {
	if i < len(xs) {
		return xs[i]
	}
	return ""
}
