// Package access asks the gate for signed URLs and moves bytes through them.
// Every method reports failures as *Failure and never returns a partial
// result together with an error.
package access

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/thesisvault/internal/client/session"
	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/filex"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/dmitrijs2005/thesisvault/internal/netx"
)

const (
	// ProfilePicturePrefix is the key prefix of user profile pictures.
	ProfilePicturePrefix = "profile_pics/"
	// ThesisPrefix is the key prefix of uploaded thesis documents.
	ThesisPrefix = "theses/"

	maxGateResponse = 64 << 10
)

const (
	msgLoginToRead    = "You must be logged in to access files."
	msgLoginToWrite   = "You must be logged in to upload files."
	msgSessionExpired = "Your session might have expired or is invalid. Please try logging out and logging back in."
	msgNotFound       = "The requested file was not found in storage."
	msgNoSuchFile     = "The selected file does not exist."
	msgObjectRequired = "An object name is required."
	msgPathRequired   = "A local file path is required."
	msgUserRequired   = "A user id is required."
)

var newID = uuid.NewString

// Config points the client at the gate.
type Config struct {
	ReadURL    string
	WriteURL   string
	Bucket     string
	HTTPClient *http.Client
}

type Client struct {
	cfg      Config
	http     *http.Client
	sess     *session.Session
	logger   logging.Logger
	observer StateObserver
}

type Option func(*Client)

// WithStateObserver reports every state change of every operation to o.
func WithStateObserver(o StateObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func New(cfg Config, sess *session.Session, logger logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{cfg: cfg, http: hc, sess: sess, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

type grantRequest struct {
	ObjectName  string `json:"objectName"`
	BucketName  string `json:"bucketName"`
	ContentType string `json:"contentType,omitempty"`
}

type grantResponse struct {
	SignedURL string `json:"signedUrl"`
}

// RequestReadGrant returns a signed URL that lets anyone holding it fetch
// objectName until it expires.
func (c *Client) RequestReadGrant(ctx context.Context, objectName string) (string, error) {
	t := c.track(OpReadGrant, objectName)
	u, f := c.requestGrant(ctx, t, true, objectName, "")
	if f != nil {
		return "", f
	}
	t.to(StateCompleted)
	return u, nil
}

// RequestWriteGrant returns a signed URL for a single PUT of objectName. The
// upload must carry contentType or storage rejects it.
func (c *Client) RequestWriteGrant(ctx context.Context, objectName, contentType string) (string, error) {
	t := c.track(OpWriteGrant, objectName)
	u, f := c.requestGrant(ctx, t, false, objectName, contentType)
	if f != nil {
		return "", f
	}
	t.to(StateCompleted)
	return u, nil
}

// UploadViaGrant uploads the file at localPath as objectName and returns
// the object name to be stored as the reference.
func (c *Client) UploadViaGrant(ctx context.Context, localPath, objectName string) (string, error) {
	t := c.track(OpUpload, objectName)

	if localPath == "" {
		return "", t.fail(&Failure{Category: CategoryInvalidInput, Message: msgPathRequired})
	}
	if objectName == "" {
		return "", t.fail(&Failure{Category: CategoryInvalidInput, Message: msgObjectRequired})
	}

	file, size, err := filex.OpenRegular(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", t.fail(&Failure{Category: CategoryFile, Message: msgNoSuchFile, Err: err})
		}
		return "", t.fail(&Failure{Category: CategoryFile, Message: fmt.Sprintf("Cannot read the selected file: %v", err), Err: err})
	}
	defer file.Close()

	contentType := ContentTypeFor(filepath.Ext(localPath))

	signed, f := c.requestGrant(ctx, t, false, objectName, contentType)
	if f != nil {
		return "", f
	}

	t.to(StateTransferInProgress)
	c.logger.Debug(ctx, "uploading", "object", objectName, "url", netx.Redact(signed), "size", size, "content_type", contentType)

	if err := netx.PutSigned(ctx, c.http, signed, contentType, file, size); err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			return "", t.fail(&Failure{Category: CategoryTransfer, Message: fmt.Sprintf("Upload failed: %s - %s", se.Status, se.Body), Err: err})
		}
		return "", t.fail(&Failure{Category: CategoryTransfer, Message: fmt.Sprintf("Upload error: %v", err), Err: err})
	}

	t.to(StateCompleted)
	c.logger.Info(ctx, "upload completed", "object", objectName, "size", size)
	return objectName, nil
}

// UploadProfilePicture stores localPath as the profile picture of subjectID.
// The object name keeps the local file extension.
func (c *Client) UploadProfilePicture(ctx context.Context, localPath, subjectID string) (string, error) {
	if subjectID == "" {
		f := &Failure{Category: CategoryInvalidInput, Message: msgUserRequired}
		c.track(OpUpload, "").fail(f)
		return "", f
	}
	return c.UploadViaGrant(ctx, localPath, ProfilePictureObjectName(subjectID, localPath))
}

// Download fetches objectName through a fresh read grant and writes it to w.
func (c *Client) Download(ctx context.Context, objectName string, w io.Writer) (int64, error) {
	t := c.track(OpDownload, objectName)

	signed, f := c.requestGrant(ctx, t, true, objectName, "")
	if f != nil {
		return 0, f
	}

	t.to(StateTransferInProgress)
	n, err := netx.GetSigned(ctx, c.http, signed, w)
	if err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			return 0, t.fail(&Failure{Category: CategoryTransfer, Message: fmt.Sprintf("Download failed: %s - %s", se.Status, se.Body), Err: err})
		}
		return 0, t.fail(&Failure{Category: CategoryTransfer, Message: fmt.Sprintf("Download error: %v", err), Err: err})
	}

	t.to(StateCompleted)
	return n, nil
}

// ThesisObjectName returns a fresh, collision-free key for a thesis file.
func ThesisObjectName(fileName string) string {
	return ThesisPrefix + newID() + "/" + filepath.Base(fileName)
}

// ProfilePictureObjectName returns the key of subjectID's profile picture.
func ProfilePictureObjectName(subjectID, localPath string) string {
	return ProfilePicturePrefix + subjectID + filepath.Ext(localPath)
}

func (c *Client) track(op Operation, object string) *tracker {
	return &tracker{op: op, object: object, observer: c.observer}
}

// requestGrant drives t from Idle to GrantIssued, or to Failed.
func (c *Client) requestGrant(ctx context.Context, t *tracker, read bool, objectName, contentType string) (string, *Failure) {
	endpoint, loginMsg, kind := c.cfg.WriteURL, msgLoginToWrite, "upload"
	if read {
		endpoint, loginMsg, kind = c.cfg.ReadURL, msgLoginToRead, "file"
	}

	if objectName == "" {
		return "", t.fail(&Failure{Category: CategoryInvalidInput, Message: msgObjectRequired})
	}
	token := c.sess.Token()
	if token == "" {
		return "", t.fail(&Failure{Category: CategoryAuthentication, Message: loginMsg, Err: common.ErrNotLoggedIn})
	}

	t.to(StateGrantRequested)

	body, err := json.Marshal(grantRequest{ObjectName: objectName, BucketName: c.cfg.Bucket, ContentType: contentType})
	if err != nil {
		return "", t.fail(&Failure{Category: CategoryAccess, Message: fmt.Sprintf("Error getting %s access: %v", kind, err), Err: err})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", t.fail(&Failure{Category: CategoryAccess, Message: fmt.Sprintf("Error getting %s access: %v", kind, err), Err: err})
	}
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug(ctx, "requesting grant", "op", t.op, "object", objectName, "token", common.TokenHint(token))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", t.fail(&Failure{Category: CategoryAccess, Message: fmt.Sprintf("Error getting %s access: %v", kind, err), Err: err})
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxGateResponse))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn(ctx, "gate rejected token", "op", t.op, "body", string(raw))
		return "", t.fail(&Failure{Category: CategoryAuthentication, Message: msgSessionExpired, Err: common.ErrUnauthorized})
	case resp.StatusCode == http.StatusNotFound && read:
		return "", t.fail(&Failure{Category: CategoryNotFound, Message: msgNotFound, Err: common.ErrNotFound})
	case resp.StatusCode/100 != 2:
		msg := fmt.Sprintf("Error getting %s access: %s - %s", kind, resp.Status, strings.TrimSpace(string(raw)))
		return "", t.fail(&Failure{Category: CategoryAccess, Message: msg})
	}

	var gr grantResponse
	if err := json.Unmarshal(raw, &gr); err != nil || gr.SignedURL == "" {
		if err == nil {
			err = errors.New("empty signed url")
		}
		return "", t.fail(&Failure{Category: CategoryAccess, Message: fmt.Sprintf("Error getting %s access: invalid gate response", kind), Err: err})
	}

	t.to(StateGrantIssued)
	c.logger.Debug(ctx, "grant issued", "op", t.op, "object", objectName, "url", netx.Redact(gr.SignedURL))
	return gr.SignedURL, nil
}
