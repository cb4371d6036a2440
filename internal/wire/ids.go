package wire

// MAVLink common-dialect message identifiers used by the scheduler and
// filter. Only the identifiers that appear in a fixed set are named; every
// other identifier classifies as routine traffic.
const (
	MsgHeartbeat         MsgID = 0
	MsgSetMode           MsgID = 11
	MsgParamSet          MsgID = 23
	MsgGPSRawInt         MsgID = 24
	MsgRawIMU            MsgID = 27
	MsgScaledPressure    MsgID = 29
	MsgAttitude          MsgID = 30
	MsgGlobalPositionInt MsgID = 33
	MsgServoOutputRaw    MsgID = 36
	MsgMissionCount      MsgID = 44
	MsgRCChannels        MsgID = 65
	MsgMissionItemInt    MsgID = 73
	MsgVFRHUD            MsgID = 74
	MsgCommandInt        MsgID = 75
	MsgCommandLong       MsgID = 76
	MsgCommandAck        MsgID = 77
	MsgBatteryStatus     MsgID = 147
	MsgVibration         MsgID = 241
	MsgStatusText        MsgID = 253
)
