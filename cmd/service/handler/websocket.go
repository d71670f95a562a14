package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/holdno/firetower/protocol"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/app/core/srv"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/cmd/service/middleware"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Websocket 实时订阅入口。普通访客只能订阅单个会话主题，
// admins 汇总主题需要后台身份。
func Websocket(core *core.Core) func(c *gin.Context) {
	if core.Srv().Tower() == nil {
		return func(c *gin.Context) {
			response.APIError(c, errors.New("api.Websocket", "this server not support websocket service", nil))
		}
	}
	return func(c *gin.Context) {
		tower := core.Srv().Tower()
		adminUser := middleware.InjectAdminUser(c)

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Websocket Upgrade err", slog.String("error", err.Error()))
			response.APIError(c, errors.New("api.Websocket", "failed to upgrade http", err))
			return
		}

		id := utils.GenRandomID()
		thisTower, err := tower.BuildTower(ws, id)
		if err != nil {
			response.APIError(c, errors.New("api.Websocket", "failed to build firetower", err))
			return
		}
		if adminUser != nil {
			thisTower.SetUserID(adminUser.ID)
		} else {
			thisTower.SetUserID(id)
		}

		thisTower.SetReadHandler(func(fire protocol.ReadOnlyFire[srv.PublishData]) bool {
			// 当前用户是不能通过websocket发送消息的，所以固定返回false
			return false
		})

		thisTower.SetReceivedHandler(func(fi protocol.ReadOnlyFire[srv.PublishData]) bool {
			raw, err := json.Marshal(fi.GetMessage())
			if err != nil {
				slog.Error("failed to marshal firetower received message", slog.String("error", err.Error()))
				return false
			}
			thisTower.SendToClient(raw)
			return false
		})

		thisTower.SetReadTimeoutHandler(func(fire protocol.ReadOnlyFire[srv.PublishData]) {
			slog.Error("read timeout trigger", slog.String("component", "firetower"))
		})

		thisTower.SetBeforeSubscribeHandler(func(fireCtx protocol.FireLife, topics []string) bool {
			for _, topic := range topics {
				if strings.HasPrefix(topic, "/chat/conversation/") {
					continue
				}
				if topic == types.TOPIC_CHAT_ADMINS {
					if adminUser == nil {
						slog.Warn("guest tried to subscribe admin topic", slog.String("topic", topic))
						return false
					}
					continue
				}
				return false
			}
			return true
		})

		thisTower.SetSubscribeHandler(func(context protocol.FireLife, topic []string) {
			for _, v := range topic {
				resp := &protocol.TopicMessage[json.RawMessage]{
					Topic: v,
					Type:  protocol.SubscribeOperation,
				}
				resp.Data = json.RawMessage(`{"status":"success"}`)
				msg, _ := json.Marshal(resp)
				thisTower.SendToClient(msg)
			}
		})

		thisTower.SetUnSubscribeHandler(func(context protocol.FireLife, topic []string) {
			for _, v := range topic {
				resp := &protocol.TopicMessage[json.RawMessage]{
					Topic: v,
					Type:  protocol.UnSubscribeOperation,
				}
				resp.Data = json.RawMessage(`{"status":"success"}`)
				msg, _ := json.Marshal(resp)
				thisTower.SendToClient(msg)
			}
		})

		thisTower.Run()
	}
}
