package canboard

// Request payloads passed as the last argument of mutating procedures.
// Entity-scoped procedures take the target entity id as their first argument.

type UpdateNameReq struct {
	Name string `json:"name"`
}

type UpdateDescReq struct {
	Desc string `json:"desc"`
}

type DeleteBusReq struct {
	BusEntityID string `json:"busEntityId"`
}

type UpdateBusTypeReq struct {
	Type BusType `json:"type"`
}

type UpdateBaudrateReq struct {
	Baudrate int `json:"baudrate"`
}

type UpdateNodeIDReq struct {
	NodeID uint `json:"nodeId"`
}

type AttachBusReq struct {
	InterfaceNumber int    `json:"interfaceNumber"`
	BusEntityID     string `json:"busEntityId"`
}

type AddSentMessageReq struct {
	InterfaceNumber int `json:"interfaceNumber"`
}

type RemoveSentMessagesReq struct {
	InterfaceNumber  int      `json:"interfaceNumber"`
	MessageEntityIDs []string `json:"messageEntityIds"`
}

type UpdateMessageIDReq struct {
	MessageID uint `json:"messageId"`
}

type UpdateStaticCANIDReq struct {
	StaticCANID uint `json:"staticCanId"`
}

type UpdateSizeByteReq struct {
	SizeByte int `json:"sizeByte"`
}

type UpdateByteOrderReq struct {
	ByteOrder MessageByteOrder `json:"byteOrder"`
}

type UpdateCycleTimeReq struct {
	CycleTime int `json:"cycleTime"`
}

type UpdateSendTypeReq struct {
	SendType MessageSendType `json:"sendType"`
}

type UpdateDelayTimeReq struct {
	DelayTime int `json:"delayTime"`
}

type UpdateStartDelayTimeReq struct {
	StartDelayTime int `json:"startDelayTime"`
}

type AddSignalReq struct {
	SignalKind SignalKind `json:"signalKind"`
}

type DeleteSignalsReq struct {
	SignalEntityIDs []string `json:"signalEntityIds"`
}

type ReorderSignalReq struct {
	SignalEntityID string `json:"signalEntityId"`
	From           int    `json:"from"`
	To             int    `json:"to"`
}

type GetInvalidCANIDsReq struct {
	BusEntityID string `json:"busEntityId"`
}

type UpdateSignalTypeReq struct {
	SignalTypeEntityID string `json:"signalTypeEntityId"`
}

type UpdateSignalUnitReq struct {
	SignalUnitEntityID string `json:"signalUnitEntityId"`
}

type UpdateSignalEnumReq struct {
	SignalEnumEntityID string `json:"signalEnumEntityId"`
}

type UpdateMinReq struct {
	Min float64 `json:"min"`
}

type UpdateMaxReq struct {
	Max float64 `json:"max"`
}

type UpdateScaleReq struct {
	Scale float64 `json:"scale"`
}

type UpdateOffsetReq struct {
	Offset float64 `json:"offset"`
}

type UpdateSignalUnitKindReq struct {
	Kind SignalUnitKind `json:"kind"`
}

type UpdateSymbolReq struct {
	Symbol string `json:"symbol"`
}

type ReorderValueReq struct {
	ValueEntityID string `json:"valueEntityId"`
	From          int    `json:"from"`
	To            int    `json:"to"`
}

type RemoveValuesReq struct {
	ValueEntityIDs []string `json:"valueEntityIds"`
}

type UpdateValueNameReq struct {
	ValueEntityID string `json:"valueEntityId"`
	Name          string `json:"name"`
}

type UpdateValueIndexReq struct {
	ValueEntityID string `json:"valueEntityId"`
	Index         int    `json:"index"`
}

type UpdateValueDescReq struct {
	ValueEntityID string `json:"valueEntityId"`
	Desc          string `json:"desc"`
}
