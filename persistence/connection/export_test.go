package connection

var NewManagerFromAdapter = newManagerFromAdapter
