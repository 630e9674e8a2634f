package canboard

// Procedure identifiers, formatted as {Service}.{Method}.
const (
	ProcNetworkGet        = "NetworkService.Get"
	ProcNetworkUpdateName = "NetworkService.UpdateName"
	ProcNetworkUpdateDesc = "NetworkService.UpdateDesc"
	ProcNetworkAddBus     = "NetworkService.AddBus"
	ProcNetworkDeleteBus  = "NetworkService.DeleteBus"

	ProcBusGet             = "BusService.Get"
	ProcBusListBase        = "BusService.ListBase"
	ProcBusUpdateName      = "BusService.UpdateName"
	ProcBusUpdateDesc      = "BusService.UpdateDesc"
	ProcBusUpdateBusType   = "BusService.UpdateBusType"
	ProcBusUpdateBaudrate  = "BusService.UpdateBaudrate"
	ProcBusGetInvalidNames = "BusService.GetInvalidNames"
	ProcBusGetLoad         = "BusService.GetLoad"

	ProcNodeGet                = "NodeService.Get"
	ProcNodeUpdateName         = "NodeService.UpdateName"
	ProcNodeUpdateDesc         = "NodeService.UpdateDesc"
	ProcNodeUpdateID           = "NodeService.UpdateID"
	ProcNodeAttachBus          = "NodeService.AttachBus"
	ProcNodeAddSentMessage     = "NodeService.AddSentMessage"
	ProcNodeRemoveSentMessages = "NodeService.RemoveSentMessages"
	ProcNodeGetInvalidNames    = "NodeService.GetInvalidNames"
	ProcNodeGetInvalidIDs      = "NodeService.GetInvalidIDs"

	ProcMessageGet                  = "MessageService.Get"
	ProcMessageUpdateName           = "MessageService.UpdateName"
	ProcMessageUpdateDesc           = "MessageService.UpdateDesc"
	ProcMessageUpdateMessageID      = "MessageService.UpdateMessageID"
	ProcMessageUpdateStaticCANID    = "MessageService.UpdateStaticCANID"
	ProcMessageUpdateSizeByte       = "MessageService.UpdateSizeByte"
	ProcMessageUpdateByteOrder      = "MessageService.UpdateByteOrder"
	ProcMessageUpdateCycleTime      = "MessageService.UpdateCycleTime"
	ProcMessageUpdateSendType       = "MessageService.UpdateSendType"
	ProcMessageUpdateDelayTime      = "MessageService.UpdateDelayTime"
	ProcMessageUpdateStartDelayTime = "MessageService.UpdateStartDelayTime"
	ProcMessageAddSignal            = "MessageService.AddSignal"
	ProcMessageDeleteSignals        = "MessageService.DeleteSignals"
	ProcMessageCompactSignals       = "MessageService.CompactSignals"
	ProcMessageReorderSignal        = "MessageService.ReorderSignal"
	ProcMessageGetInvalidNames      = "MessageService.GetInvalidNames"
	ProcMessageGetInvalidMessageIDs = "MessageService.GetInvalidMessageIDs"
	ProcMessageGetInvalidCANIDs     = "MessageService.GetInvalidCANIDs"

	ProcSignalGet              = "SignalService.Get"
	ProcSignalUpdateName       = "SignalService.UpdateName"
	ProcSignalUpdateDesc       = "SignalService.UpdateDesc"
	ProcSignalUpdateSignalType = "SignalService.UpdateSignalType"
	ProcSignalUpdateSignalUnit = "SignalService.UpdateSignalUnit"
	ProcSignalUpdateSignalEnum = "SignalService.UpdateSignalEnum"
	ProcSignalGetInvalidNames  = "SignalService.GetInvalidNames"

	ProcSignalTypeGet             = "SignalTypeService.Get"
	ProcSignalTypeUpdateName      = "SignalTypeService.UpdateName"
	ProcSignalTypeUpdateDesc      = "SignalTypeService.UpdateDesc"
	ProcSignalTypeUpdateMin       = "SignalTypeService.UpdateMin"
	ProcSignalTypeUpdateMax       = "SignalTypeService.UpdateMax"
	ProcSignalTypeUpdateScale     = "SignalTypeService.UpdateScale"
	ProcSignalTypeUpdateOffset    = "SignalTypeService.UpdateOffset"
	ProcSignalTypeGetInvalidNames = "SignalTypeService.GetInvalidNames"

	ProcSignalUnitGet             = "SignalUnitService.Get"
	ProcSignalUnitUpdateName      = "SignalUnitService.UpdateName"
	ProcSignalUnitUpdateDesc      = "SignalUnitService.UpdateDesc"
	ProcSignalUnitUpdateKind      = "SignalUnitService.UpdateKind"
	ProcSignalUnitUpdateSymbol    = "SignalUnitService.UpdateSymbol"
	ProcSignalUnitGetInvalidNames = "SignalUnitService.GetInvalidNames"

	ProcSignalEnumGet              = "SignalEnumService.Get"
	ProcSignalEnumUpdateName       = "SignalEnumService.UpdateName"
	ProcSignalEnumUpdateDesc       = "SignalEnumService.UpdateDesc"
	ProcSignalEnumReorderValue     = "SignalEnumService.ReorderValue"
	ProcSignalEnumAddValue         = "SignalEnumService.AddValue"
	ProcSignalEnumRemoveValues     = "SignalEnumService.RemoveValues"
	ProcSignalEnumUpdateValueName  = "SignalEnumService.UpdateValueName"
	ProcSignalEnumUpdateValueIndex = "SignalEnumService.UpdateValueIndex"
	ProcSignalEnumUpdateValueDesc  = "SignalEnumService.UpdateValueDesc"
	ProcSignalEnumGetInvalidNames  = "SignalEnumService.GetInvalidNames"

	ProcSidebarGet = "SidebarService.Get"

	ProcHistoryGet  = "HistoryService.Get"
	ProcHistoryUndo = "HistoryService.Undo"
	ProcHistoryRedo = "HistoryService.Redo"
)

// Procedure returns the identifier of method on the service owning kind.
func Procedure(kind EntityKind, method string) string {
	return kind.Service() + "." + method
}
