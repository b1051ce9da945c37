package callbag

var ViolationsCounter = violationsCounter
