package srv

import (
	"encoding/json"

	fireprotocol "github.com/holdno/firetower/protocol"
	"github.com/holdno/firetower/service/tower"

	"github.com/dashmart-ai/dashmart/pkg/socket/firetower"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

type Tower struct {
	pusher *firetower.SelfPusher[PublishData]
	tower.Manager[PublishData]
}

type PublishData struct {
	Subject string            `json:"subject"`
	Version string            `json:"version"`
	Type    types.WsEventType `json:"type"`
	Data    any               `json:"data"`
}

func (c *PublishData) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte(""), nil
	}
	return json.Marshal(c)
}

func (c *PublishData) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == `""` {
		return nil
	}
	return json.Unmarshal(data, c)
}

func SetupSocketSrv() (*Tower, error) {
	tm, pusher, err := firetower.SetupFiretower[PublishData]()
	if err != nil {
		return nil, err
	}

	return &Tower{
		pusher:  pusher,
		Manager: tm,
	}, nil
}

func ApplyTower() ApplyFunc {
	return func(s *Srv) {
		var err error
		if s.tower, err = SetupSocketSrv(); err != nil {
			panic(err)
		}
	}
}

func (t *Tower) NewMessage(imtopic string, _type fireprotocol.FireOperation, data PublishData) *fireprotocol.FireInfo[PublishData] {
	fire := t.NewFire(fireprotocol.SourceSystem, t.pusher)
	fire.Message.Topic = imtopic
	fire.Message.Type = _type
	fire.Message.Data = data
	return fire
}

// PublishConversationEvent 同时发布到会话主题与 admins 汇总主题。
// 投递语义为 at-least-once，订阅端自行去重。
func (t *Tower) PublishConversationEvent(eventType types.WsEventType, event *types.ConversationEvent) error {
	if err := t.publish(types.TopicConversation(event.ConversationID), eventType, event); err != nil {
		return err
	}
	return t.publish(types.TOPIC_CHAT_ADMINS, eventType, event)
}

// PublishAdminEvent 仅发布到 admins 汇总主题，内部备注走这里，
// 不能出现在客户订阅的会话主题上。
func (t *Tower) PublishAdminEvent(eventType types.WsEventType, event *types.ConversationEvent) error {
	return t.publish(types.TOPIC_CHAT_ADMINS, eventType, event)
}

func (t *Tower) publish(imtopic string, eventType types.WsEventType, data any) error {
	fire := t.NewMessage(imtopic, fireprotocol.PublishOperation, PublishData{
		Subject: "conversation_event",
		Version: "v1",
		Type:    eventType,
		Data:    data,
	})
	return t.Publish(fire)
}
